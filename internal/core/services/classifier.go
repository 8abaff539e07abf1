package services

import (
	"strings"
	"unicode"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"

	"github.com/nordvig-labs/byggqa-cli/internal/logger"
)

// logicalElement is an element after noise filtering and list
// grouping. A grouped list run carries the ids of every fragment it
// was merged from; a plain element carries just its own.
type logicalElement struct {
	domain.Element
	sourceIDs []string
}

// classifyElements runs the pre-chunking passes in fixed order: list
// grouping, then noise filtering. It returns the surviving logical
// elements in document order and the number of elements dropped.
func classifyElements(elements []domain.Element) ([]logicalElement, int) {
	grouped := groupListRuns(elements)

	out := make([]logicalElement, 0, len(grouped))
	dropped := 0
	for _, le := range grouped {
		if nonWhitespaceLen(le.Content) < 3 {
			logger.Debug("Dropping noise element %s (page %d)", le.ID, le.PageNumber)
			dropped += len(le.sourceIDs)
			continue
		}
		out = append(out, le)
	}
	return out, dropped
}

// groupListRuns merges consecutive text elements on the same page that
// match a list-item pattern into one logical element, preserving
// order. Runs shorter than two items are left as-is.
func groupListRuns(elements []domain.Element) []logicalElement {
	out := make([]logicalElement, 0, len(elements))

	for i := 0; i < len(elements); {
		el := elements[i]
		if !el.IsListItem() {
			out = append(out, logicalElement{Element: el, sourceIDs: []string{el.ID}})
			i++
			continue
		}

		// Extend the run while items stay on the same page.
		j := i + 1
		for j < len(elements) && elements[j].IsListItem() && elements[j].PageNumber == el.PageNumber {
			j++
		}

		if j-i < 2 {
			out = append(out, logicalElement{Element: el, sourceIDs: []string{el.ID}})
			i++
			continue
		}

		out = append(out, mergeListRun(elements[i:j]))
		i = j
	}

	return out
}

// mergeListRun joins a detected list run into one logical text element.
func mergeListRun(run []domain.Element) logicalElement {
	contents := make([]string, 0, len(run))
	ids := make([]string, 0, len(run))
	section := ""
	words := 0
	for _, el := range run {
		contents = append(contents, strings.TrimRight(el.Content, " \t"))
		ids = append(ids, el.ID)
		if section == "" {
			section = el.SectionTitle
		}
		words += el.WordCount
	}

	merged := run[0]
	merged.Content = strings.Join(contents, "\n")
	merged.SectionTitle = section
	merged.WordCount = words

	logger.Debug("Grouped list run of %d items on page %d", len(run), merged.PageNumber)
	return logicalElement{Element: merged, sourceIDs: ids}
}

// nonWhitespaceLen counts the non-whitespace runes in s.
func nonWhitespaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
