package tagging

import (
	"sort"
	"strings"
	"sync"
)

// Tagger infers genre and content tags from a track's title and
// description using keyword rules. Matching is case-insensitive
// substring containment; each rule contributes its tag at most once.
type Tagger struct {
	mu    sync.RWMutex
	rules map[string][]string
}

// New creates a tagger with the default rule set
func New() *Tagger {
	return &Tagger{
		rules: map[string][]string{
			"Synthwave":  {"synthwave", "retrowave", "outrun", "darksynth"},
			"House":      {"house", "deep house", "tech house"},
			"Techno":     {"techno", "acid", "warehouse"},
			"Hip-Hop":    {"hip-hop", "hip hop", "boom bap", "trap"},
			"Ambient":    {"ambient", "soundscape", "atmospheric", "drone"},
			"Jazz":       {"jazz", "bebop", "swing", "saxophone"},
			"Lo-Fi":      {"lo-fi", "lofi", "chillhop"},
			"Electronic": {"electronic", "edm", "synth", "modular"},
			"Acoustic":   {"acoustic", "unplugged", "guitar", "piano"},
			"Remix":      {"remix", "rework", "bootleg", "flip"},
			"Live":       {"live set", "live recording", "live session", "concert"},
			"Mix":        {"dj mix", "mixtape", "dj set"},
			"Demo":       {"demo", "work in progress", "wip", "sketch"},
		},
	}
}

// InferTags returns the tags whose keywords appear in the title or
// description. The result is sorted, deduplicated and never nil.
func (t *Tagger) InferTags(title, description string) []string {
	text := strings.ToLower(title + " " + description)

	t.mu.RLock()
	defer t.mu.RUnlock()

	tags := make([]string, 0, 4)
	for tag, keywords := range t.rules {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// AddRule registers a tag with its trigger keywords, replacing any
// existing rule for the tag
func (t *Tagger) AddRule(tag string, keywords []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[tag] = keywords
}

// RemoveRule deletes the rule for a tag
func (t *Tagger) RemoveRule(tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rules, tag)
}

// GetRules returns a copy of the rule set
func (t *Tagger) GetRules() map[string][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rules := make(map[string][]string, len(t.rules))
	for tag, keywords := range t.rules {
		rules[tag] = append([]string(nil), keywords...)
	}
	return rules
}
