package feed

import (
	"runtime"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rgoulding/trackline/internal/models"
)

// batchYieldSize bounds how many items are evaluated between cooperative
// yield points so a very large batch cannot monopolize the scheduler.
const batchYieldSize = 2048

// ApplySecondaryPredicate narrows an already-fetched batch using the text
// fields that are only reachable through the joined entity. An item is
// retained if its own columns matched the primary query, or if its joined
// title/description contains text case-insensitively. Items without a
// joined entity are judged on native fields alone. The pass never issues
// store round trips.
func ApplySecondaryPredicate(items []models.ContentItem, text string) []models.ContentItem {
	if text == "" {
		return items
	}

	needle := foldText(text)
	kept := make([]models.ContentItem, 0, len(items))
	for i, item := range items {
		if item.MatchedNative || matchesJoined(item, needle) {
			kept = append(kept, item)
		}
		if (i+1)%batchYieldSize == 0 {
			yield()
		}
	}
	return kept
}

func matchesJoined(item models.ContentItem, needle string) bool {
	if !item.HasJoined {
		return false
	}
	return strings.Contains(foldText(item.JoinedTitle), needle) ||
		strings.Contains(foldText(item.JoinedDescription), needle)
}

func yield() {
	runtime.Gosched()
}

// foldText prepares a string for case-insensitive containment checks.
// NFC normalization keeps composed and decomposed forms of the same
// character from defeating the match.
func foldText(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}
