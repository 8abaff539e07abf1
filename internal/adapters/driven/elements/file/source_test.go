package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordvig-labs/byggqa-cli/internal/core/domain"
)

func writeElements(t *testing.T, dir, documentID, content string) {
	t.Helper()
	path := filepath.Join(dir, documentID+".jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestElements_ReadsInFileOrder(t *testing.T) {
	dir := t.TempDir()
	writeElements(t, dir, "doc-1", `{"id":"el-1","type":"text","content":"Kabelbakker i gang A.","page_number":1,"section_title":"El-installationer","word_count":4}
{"id":"el-2","type":"table","content":"| Type | Antal |","page_number":2,"caption":"Tabel 1"}
{"id":"el-3","type":"image","content":"","page_number":3,"image_url":"p3-fig1.png"}
`)

	source := NewSource(dir)
	elements, err := source.Elements(context.Background(), "doc-1")

	require.NoError(t, err)
	require.Len(t, elements, 3)
	assert.Equal(t, "el-1", elements[0].ID)
	assert.Equal(t, domain.ElementText, elements[0].Type)
	assert.Equal(t, "doc-1", elements[0].DocumentID)
	assert.Equal(t, "El-installationer", elements[0].SectionTitle)
	assert.Equal(t, 4, elements[0].WordCount)
	assert.Equal(t, domain.ElementTable, elements[1].Type)
	assert.Equal(t, "Tabel 1", elements[1].Caption)
	assert.Equal(t, domain.ElementImage, elements[2].Type)
	assert.Equal(t, "p3-fig1.png", elements[2].ImageURL)
}

func TestElements_SkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	writeElements(t, dir, "doc-1", `{"id":"el-1","type":"text","content":"a","page_number":1}

{"id":"el-2","type":"text","content":"b","page_number":1}
`)

	elements, err := NewSource(dir).Elements(context.Background(), "doc-1")

	require.NoError(t, err)
	assert.Len(t, elements, 2)
}

func TestElements_MissingDocument(t *testing.T) {
	source := NewSource(t.TempDir())

	_, err := source.Elements(context.Background(), "doc-missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestElements_MalformedLineFailsWholeRead(t *testing.T) {
	dir := t.TempDir()
	writeElements(t, dir, "doc-1", `{"id":"el-1","type":"text","content":"a","page_number":1}
{not json}
`)

	_, err := NewSource(dir).Elements(context.Background(), "doc-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamData)
	assert.Contains(t, err.Error(), "line 2")
}

func TestElements_RejectsPathSeparators(t *testing.T) {
	source := NewSource(t.TempDir())

	_, err := source.Elements(context.Background(), "../etc/passwd")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestListDocuments(t *testing.T) {
	dir := t.TempDir()
	writeElements(t, dir, "doc-b", `{"id":"el-1","type":"text","content":"a","page_number":1}`)
	writeElements(t, dir, "doc-a", `{"id":"el-1","type":"text","content":"a","page_number":1}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	ids, err := NewSource(dir).ListDocuments()

	require.NoError(t, err)
	assert.Equal(t, []string{"doc-a", "doc-b"}, ids)
}

func TestListDocuments_MissingDirectory(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "absent")).ListDocuments()

	assert.ErrorIs(t, err, domain.ErrNotFound)
}
