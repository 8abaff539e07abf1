package domain

import "strings"

// ElementType identifies the kind of parsed content an element carries.
// The set is closed; the chunking dispatch switches exhaustively over it.
type ElementType string

const (
	// ElementText is a narrative text passage.
	ElementText ElementType = "text"
	// ElementTable is a table, serialised to text by the parser.
	ElementTable ElementType = "table"
	// ElementImage is an image or page capture with a generated caption.
	ElementImage ElementType = "image"
)

// Valid reports whether t is one of the known element types.
func (t ElementType) Valid() bool {
	switch t {
	case ElementText, ElementTable, ElementImage:
		return true
	}
	return false
}

// Element is one typed unit of parsed document content, produced once
// per document by the upstream parser in reading order.
type Element struct {
	// ID is the parser-assigned identifier for the element.
	ID string

	// DocumentID links to the source document.
	DocumentID string

	// Type is the element kind (text, table, image).
	Type ElementType

	// Content is the element text. For tables this is the serialised
	// table body; for images it is the generated caption.
	Content string

	// PageNumber is the 1-based page the element appears on.
	PageNumber int

	// SectionTitle is the enclosing section heading, if the parser
	// detected one. Empty otherwise.
	SectionTitle string

	// Caption is the table caption or image caption, if any.
	Caption string

	// ImageURL is the stored location of an image element's payload.
	ImageURL string

	// WordCount is the parser-reported word count for text elements.
	WordCount int
}

// IsListItem reports whether the element looks like a single list item:
// a short text fragment starting with a bullet or enumeration marker.
func (e Element) IsListItem() bool {
	if e.Type != ElementText {
		return false
	}
	s := strings.TrimLeft(e.Content, " \t")
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "*") || strings.HasPrefix(s, "•") {
		return true
	}
	// Enumerations like "1." / "1)" / "a)".
	i := 0
	for i < len(s) && ((s[i] >= '0' && s[i] <= '9') || (s[i] >= 'a' && s[i] <= 'z' && i == 0)) {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return true
	}
	return false
}
