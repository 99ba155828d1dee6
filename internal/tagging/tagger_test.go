package tagging

import (
	"sort"
	"testing"
)

func TestNew(t *testing.T) {
	tagger := New()
	if tagger == nil {
		t.Fatal("New() returned nil")
	}
	if tagger.rules == nil {
		t.Fatal("New() returned tagger with nil rules")
	}
	if len(tagger.rules) == 0 {
		t.Fatal("New() returned tagger with empty rules")
	}
}

func TestInferTags_SingleMatch(t *testing.T) {
	tagger := New()

	tests := []struct {
		name        string
		title       string
		description string
		expectedTag string
	}{
		{
			name:        "synthwave in title",
			title:       "Midnight Drive (Synthwave)",
			description: "",
			expectedTag: "Synthwave",
		},
		{
			name:        "lofi in description",
			title:       "Rainy Afternoon",
			description: "a lofi beat to study to",
			expectedTag: "Lo-Fi",
		},
		{
			name:        "remix keyword",
			title:       "Neon Nights (Club Remix)",
			description: "",
			expectedTag: "Remix",
		},
		{
			name:        "live keyword",
			title:       "Warehouse live set, March 2026",
			description: "",
			expectedTag: "Live",
		},
		{
			name:        "jazz keyword",
			title:       "Late Night Bebop",
			description: "",
			expectedTag: "Jazz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := tagger.InferTags(tt.title, tt.description)
			found := false
			for _, tag := range tags {
				if tag == tt.expectedTag {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("InferTags() did not return expected tag %q, got: %v", tt.expectedTag, tags)
			}
		})
	}
}

func TestInferTags_MultipleMatches(t *testing.T) {
	tagger := New()

	tags := tagger.InferTags("Darksynth Remix", "an acid techno rework of the original")

	expectedTags := []string{"Synthwave", "Remix", "Techno"}
	for _, expected := range expectedTags {
		found := false
		for _, tag := range tags {
			if tag == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected tag %q not found in %v", expected, tags)
		}
	}
}

func TestInferTags_NoMatches(t *testing.T) {
	tagger := New()

	tags := tagger.InferTags("Untitled 7", "recorded last tuesday")

	if len(tags) != 0 {
		t.Errorf("InferTags() should return empty slice for non-matching content, got: %v", tags)
	}
}

func TestInferTags_CaseInsensitive(t *testing.T) {
	tagger := New()

	tests := []struct {
		title       string
		expectedTag string
	}{
		{"SYNTHWAVE anthem", "Synthwave"},
		{"synthwave anthem", "Synthwave"},
		{"Deep House grooves", "House"},
		{"deep house grooves", "House"},
	}

	for _, tt := range tests {
		tags := tagger.InferTags(tt.title, "")
		found := false
		for _, tag := range tags {
			if tag == tt.expectedTag {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("InferTags(%q) should match %q case-insensitively, got: %v", tt.title, tt.expectedTag, tags)
		}
	}
}

func TestInferTags_EmptyInput(t *testing.T) {
	tagger := New()

	tags := tagger.InferTags("", "")
	if tags == nil {
		t.Error("InferTags() should return empty slice, not nil")
	}
	if len(tags) != 0 {
		t.Errorf("InferTags() on empty input should return empty slice, got: %v", tags)
	}
}

func TestAddRule(t *testing.T) {
	tagger := New()

	tagger.AddRule("Field Recording", []string{"field recording", "binaural"})

	tags := tagger.InferTags("Binaural forest walk", "")
	found := false
	for _, tag := range tags {
		if tag == "Field Recording" {
			found = true
			break
		}
	}
	if !found {
		t.Error("AddRule() did not add custom rule properly")
	}
}

func TestRemoveRule(t *testing.T) {
	tagger := New()

	tags := tagger.InferTags("Acid techno banger", "")
	hasTechno := false
	for _, tag := range tags {
		if tag == "Techno" {
			hasTechno = true
			break
		}
	}
	if !hasTechno {
		t.Fatal("Expected Techno tag before removal")
	}

	tagger.RemoveRule("Techno")

	tags = tagger.InferTags("Acid techno banger", "")
	for _, tag := range tags {
		if tag == "Techno" {
			t.Error("Techno tag should not be inferred after RemoveRule()")
		}
	}
}

func TestGetRules(t *testing.T) {
	tagger := New()

	rules := tagger.GetRules()

	// Verify rules is a copy (modifications don't affect original)
	rules["Test"] = []string{"test"}

	originalRules := tagger.GetRules()
	if _, exists := originalRules["Test"]; exists {
		t.Error("GetRules() should return a copy, not the original map")
	}

	expectedRules := []string{"Synthwave", "House", "Techno", "Remix"}
	for _, rule := range expectedRules {
		if _, exists := originalRules[rule]; !exists {
			t.Errorf("Expected rule %q not found in GetRules()", rule)
		}
	}
}

func TestInferTags_UniqueResults(t *testing.T) {
	tagger := New()

	tags := tagger.InferTags("techno techno techno", "acid warehouse techno")

	seen := make(map[string]bool)
	for _, tag := range tags {
		if seen[tag] {
			t.Errorf("InferTags() returned duplicate tag: %s", tag)
		}
		seen[tag] = true
	}
}

func TestInferTags_ResultsAreSorted(t *testing.T) {
	tagger := New()

	tags := tagger.InferTags("Darksynth Remix", "an acid techno rework")
	if !sort.StringsAreSorted(tags) {
		t.Errorf("InferTags() should return sorted tags, got: %v", tags)
	}
}
