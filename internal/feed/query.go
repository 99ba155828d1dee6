package feed

import (
	"sort"
	"time"

	"github.com/rgoulding/trackline/internal/models"
)

// Native text columns per content kind. Anything else in TextFields is a
// joined-entity column, which the primary store rejects: it cannot combine
// a joined column with a primary column in one disjunctive predicate.
var nativeTextFields = map[models.Kind]map[string]bool{
	models.KindPost:  {"body": true, "author_name": true},
	models.KindTrack: {"title": true, "description": true},
	models.KindUser:  {"bio": true, "display_name": true, "handle": true},
}

// PrimaryQuerySpec is a structured primary-store query over native columns.
// It replaces ad hoc string-built predicates: the type can only express
// conjunctions of native filters plus one disjunctive text predicate whose
// column list is validated against the native set.
type PrimaryQuerySpec struct {
	Kind models.Kind

	// Text is matched case-insensitively against TextFields. The store
	// evaluates it as a per-row marker, not a hard filter, so that items
	// matching only through their joined entity still come back in the
	// page for the secondary predicate pass to judge.
	Text       string
	TextFields []string

	AuthorID string
	From     time.Time
	To       time.Time

	Sort   models.SortKey
	Limit  int
	Offset int
}

// Validate rejects a spec whose text predicate references columns outside
// the primary entity's native set.
func (s PrimaryQuerySpec) Validate() error {
	if s.Text == "" {
		return nil
	}
	native := nativeTextFields[s.Kind]
	var offending []string
	for _, f := range s.TextFields {
		if !native[f] {
			offending = append(offending, f)
		}
	}
	if len(offending) > 0 {
		return &MalformedQueryError{Fields: offending}
	}
	return nil
}

// WithoutJoinedFields returns a copy with all non-native text columns
// stripped. The secondary predicate evaluator covers the stripped fields.
func (s PrimaryQuerySpec) WithoutJoinedFields() PrimaryQuerySpec {
	native := nativeTextFields[s.Kind]
	kept := make([]string, 0, len(s.TextFields))
	for _, f := range s.TextFields {
		if native[f] {
			kept = append(kept, f)
		}
	}
	s.TextFields = kept
	return s
}

// BuildPrimaryQuery translates a search query into a primary-store spec for
// the given page. It is deterministic and side-effect free. The empty text
// case omits the text predicate entirely; the store must not run a
// match-everything scan for it.
func BuildPrimaryQuery(q models.SearchQuery, page, pageSize int) PrimaryQuerySpec {
	kind := q.Kind
	if !models.ValidKind(kind) {
		kind = models.KindPost
	}

	spec := PrimaryQuerySpec{
		Kind:   kind,
		Sort:   q.Sort,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	}
	if spec.Sort != models.SortPopular {
		spec.Sort = models.SortNewest
	}

	if text := q.Text; text != "" {
		spec.Text = text
		native := nativeTextFields[kind]
		spec.TextFields = make([]string, 0, len(native))
		for f := range native {
			spec.TextFields = append(spec.TextFields, f)
		}
		sort.Strings(spec.TextFields)
	}

	if t, ok := models.ParseDateFilter(q.FromDate); ok {
		spec.From = t
	}
	if t, ok := models.ParseDateFilter(q.ToDate); ok {
		// End of day for inclusive filter.
		spec.To = t.Add(24*time.Hour - time.Nanosecond)
	}

	return spec
}
