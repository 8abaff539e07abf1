// Package file reads parsed document elements from JSONL files on
// disk, one file per document. The upstream parser writes
// <document-id>.jsonl into a shared directory; this adapter is the
// read side of that handoff.
package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
	"github.com/nordvig-labs/byggqa-cli/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.ElementSource = (*Source)(nil)

// maxLineBytes bounds a single JSONL line. Table elements can carry
// large serialised bodies, so this is generous.
const maxLineBytes = 4 * 1024 * 1024

// elementRecord is the wire form of one JSONL line.
type elementRecord struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Content      string `json:"content"`
	PageNumber   int    `json:"page_number"`
	SectionTitle string `json:"section_title,omitempty"`
	Caption      string `json:"caption,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
	WordCount    int    `json:"word_count,omitempty"`
}

// Source resolves document IDs to the parser's JSONL output files.
type Source struct {
	dir string
}

// NewSource creates an element source rooted at dir.
func NewSource(dir string) *Source {
	return &Source{dir: dir}
}

// Path returns the JSONL file path for a document ID.
func (s *Source) Path(documentID string) string {
	return filepath.Join(s.dir, documentID+".jsonl")
}

// Elements reads the document's elements in file order. A missing file
// means the document is unknown; a malformed line means the parser
// output is unusable, and the whole read fails.
func (s *Source) Elements(ctx context.Context, documentID string) ([]domain.Element, error) {
	if strings.ContainsAny(documentID, `/\`) {
		return nil, fmt.Errorf("%w: document id %q contains a path separator", domain.ErrInvalidInput, documentID)
	}

	f, err := os.Open(s.Path(documentID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no parse output for document %q", domain.ErrNotFound, documentID)
		}
		return nil, fmt.Errorf("opening elements for %q: %w", documentID, err)
	}
	defer f.Close()

	var elements []domain.Element
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var rec elementRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", domain.ErrUpstreamData, documentID+".jsonl", line, err)
		}
		elements = append(elements, domain.Element{
			ID:           rec.ID,
			DocumentID:   documentID,
			Type:         domain.ElementType(rec.Type),
			Content:      rec.Content,
			PageNumber:   rec.PageNumber,
			SectionTitle: rec.SectionTitle,
			Caption:      rec.Caption,
			ImageURL:     rec.ImageURL,
			WordCount:    rec.WordCount,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading elements for %q: %w", documentID, err)
	}
	return elements, nil
}

// ListDocuments returns the IDs of every document with parse output in
// the directory, sorted for stable iteration.
func (s *Source) ListDocuments() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: elements directory %q", domain.ErrNotFound, s.dir)
		}
		return nil, fmt.Errorf("listing elements directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".jsonl"))
	}
	sort.Strings(ids)
	return ids, nil
}
