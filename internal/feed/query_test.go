package feed

import (
	"reflect"
	"testing"
	"time"

	"github.com/rgoulding/trackline/internal/models"
)

func TestBuildPrimaryQuery_Deterministic(t *testing.T) {
	q := models.SearchQuery{
		Text:     "synthwave",
		Kind:     models.KindPost,
		FromDate: "2026-01-01",
		ToDate:   "2026-02-01",
		Sort:     models.SortPopular,
	}

	a := BuildPrimaryQuery(q, 3, 20)
	b := BuildPrimaryQuery(q, 3, 20)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected identical specs for identical inputs:\n%+v\n%+v", a, b)
	}
}

func TestBuildPrimaryQuery_EmptyTextOmitsPredicate(t *testing.T) {
	spec := BuildPrimaryQuery(models.SearchQuery{Kind: models.KindPost}, 1, 20)

	if spec.Text != "" {
		t.Errorf("expected empty text, got %q", spec.Text)
	}
	if len(spec.TextFields) != 0 {
		t.Errorf("expected no text fields for empty text, got %v", spec.TextFields)
	}
}

func TestBuildPrimaryQuery_TextFieldsAreNativeAndSorted(t *testing.T) {
	tests := []struct {
		kind models.Kind
		want []string
	}{
		{models.KindPost, []string{"author_name", "body"}},
		{models.KindTrack, []string{"description", "title"}},
		{models.KindUser, []string{"bio", "display_name", "handle"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			spec := BuildPrimaryQuery(models.SearchQuery{Text: "x", Kind: tt.kind}, 1, 20)
			if !reflect.DeepEqual(spec.TextFields, tt.want) {
				t.Errorf("expected fields %v, got %v", tt.want, spec.TextFields)
			}
		})
	}
}

func TestBuildPrimaryQuery_Paging(t *testing.T) {
	spec := BuildPrimaryQuery(models.SearchQuery{Kind: models.KindTrack}, 3, 25)

	if spec.Limit != 25 {
		t.Errorf("expected limit 25, got %d", spec.Limit)
	}
	if spec.Offset != 50 {
		t.Errorf("expected offset 50 for page 3, got %d", spec.Offset)
	}
}

func TestBuildPrimaryQuery_Defaults(t *testing.T) {
	spec := BuildPrimaryQuery(models.SearchQuery{Kind: "bogus", Sort: "bogus"}, 1, 20)

	if spec.Kind != models.KindPost {
		t.Errorf("expected unknown kind to default to post, got %q", spec.Kind)
	}
	if spec.Sort != models.SortNewest {
		t.Errorf("expected unknown sort to default to newest, got %q", spec.Sort)
	}
}

func TestBuildPrimaryQuery_DateRange(t *testing.T) {
	spec := BuildPrimaryQuery(models.SearchQuery{
		Kind:     models.KindPost,
		FromDate: "2026-03-01",
		ToDate:   "2026-03-02",
	}, 1, 20)

	wantFrom := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !spec.From.Equal(wantFrom) {
		t.Errorf("expected from %v, got %v", wantFrom, spec.From)
	}

	// To is extended to the end of the day for an inclusive range.
	if !spec.To.After(time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)) {
		t.Errorf("expected to cover the whole end day, got %v", spec.To)
	}
	if !spec.To.Before(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected to stay within the end day, got %v", spec.To)
	}
}

func TestPrimaryQuerySpec_Validate(t *testing.T) {
	tests := []struct {
		name       string
		spec       PrimaryQuerySpec
		wantFields []string
	}{
		{
			name: "native fields pass",
			spec: PrimaryQuerySpec{Kind: models.KindPost, Text: "x", TextFields: []string{"body", "author_name"}},
		},
		{
			name:       "joined field rejected",
			spec:       PrimaryQuerySpec{Kind: models.KindPost, Text: "x", TextFields: []string{"body", "track_title"}},
			wantFields: []string{"track_title"},
		},
		{
			name: "empty text skips validation",
			spec: PrimaryQuerySpec{Kind: models.KindPost, TextFields: []string{"track_title"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("expected valid spec, got %v", err)
				}
				return
			}
			malformed, ok := err.(*MalformedQueryError)
			if !ok {
				t.Fatalf("expected *MalformedQueryError, got %T", err)
			}
			if !reflect.DeepEqual(malformed.Fields, tt.wantFields) {
				t.Errorf("expected offending fields %v, got %v", tt.wantFields, malformed.Fields)
			}
		})
	}
}

func TestPrimaryQuerySpec_WithoutJoinedFields(t *testing.T) {
	spec := PrimaryQuerySpec{
		Kind:       models.KindPost,
		Text:       "x",
		TextFields: []string{"body", "track_title", "author_name", "track_description"},
	}

	stripped := spec.WithoutJoinedFields()

	want := []string{"body", "author_name"}
	if !reflect.DeepEqual(stripped.TextFields, want) {
		t.Errorf("expected %v, got %v", want, stripped.TextFields)
	}
	if err := stripped.Validate(); err != nil {
		t.Errorf("stripped spec should validate, got %v", err)
	}

	// Original untouched.
	if len(spec.TextFields) != 4 {
		t.Errorf("expected original spec unchanged, got %v", spec.TextFields)
	}
}
