package domain

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Metadata keys set on imported documents.
const (
	MetadataSource = "source"
	MetadataTitle  = "title"
	MetadataFormat = "format"

	// MetadataHeader1 and MetadataHeader2 carry the enclosing top and second
	// level headings of a section, typically restaurant and dish on a menu.
	MetadataHeader1 = "header_1"
	MetadataHeader2 = "header_2"
)

// Document is a retrieved unit of text with key/value metadata.
// Documents are produced by stores and consumed read-only by filtering and grading.
type Document struct {
	// ID is the store identifier, empty for synthesised documents.
	ID string `json:"id,omitempty"`

	// Content is the text content.
	Content string `json:"content"`

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Format renders the document as metadata plus text for prompt context.
func (d Document) Format() string {
	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Metadata: {")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", k, d.Metadata[k])
	}
	b.WriteString("}\nText: ")
	b.WriteString(d.Content)
	b.WriteString("\n")
	return b.String()
}

// FormatDocuments joins formatted documents for prompt context.
func FormatDocuments(docs []Document) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Format()
	}
	return strings.Join(parts, "\n")
}

// Partition names a section of the document store.
type Partition string

// Document store partitions.
const (
	// PartitionMenu holds restaurant menus.
	PartitionMenu Partition = "menu"

	// PartitionCode holds the galactic regulatory code.
	PartitionCode Partition = "code"

	// PartitionManual holds the cooking technique manual.
	PartitionManual Partition = "manual"
)

// IsValid returns true if the partition is recognised.
func (p Partition) IsValid() bool {
	switch p {
	case PartitionMenu, PartitionCode, PartitionManual:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p Partition) String() string {
	return string(p)
}

// AllPartitions returns every document store partition.
func AllPartitions() []Partition {
	return []Partition{PartitionMenu, PartitionCode, PartitionManual}
}

// AuxKind tags an auxiliary document with the source that produced it.
type AuxKind string

// Auxiliary document kinds.
const (
	AuxRegulatory AuxKind = "regulatory"
	AuxManual     AuxKind = "manual"
	AuxDistance   AuxKind = "distance"
)

// AuxDocument is an enrichment document tagged with its source.
type AuxDocument struct {
	Kind     AuxKind
	Document Document
}

// Record is a raw record from the structured record store.
type Record map[string]any

// Record keys with special meaning.
const (
	recordIDKey        = "_id"
	recordEmbeddingKey = "embedding"
	recordContentKey   = "page_content"
)

// ToDocument converts a record into a Document.
// The store id and embedding are dropped and page_content becomes the content.
// The record itself is not modified.
func (r Record) ToDocument() Document {
	meta := make(map[string]any, len(r))
	var content string
	for k, v := range r {
		switch k {
		case recordIDKey, recordEmbeddingKey:
			continue
		case recordContentKey:
			if s, ok := v.(string); ok {
				content = s
			}
			continue
		}
		meta[k] = v
	}
	id := ""
	if v, ok := r[recordIDKey]; ok && v != nil {
		id = fmt.Sprint(v)
	}
	return Document{ID: id, Content: content, Metadata: meta}
}

// RecordsToDocuments converts records preserving order.
func RecordsToDocuments(records []Record) []Document {
	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = r.ToDocument()
	}
	return docs
}

// FieldDescriptions enumerates every queryable key of the record store
// with its known value domain.
type FieldDescriptions map[string][]string

// String renders one "key: v1, v2" line per key in sorted key order.
func (f FieldDescriptions) String() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + ": " + strings.Join(f[k], ", ")
	}
	return strings.Join(lines, "\n")
}

// SourceFile is a dataset file read for import, before normalisation.
type SourceFile struct {
	// Path is the file location, used for titles and the source metadata.
	Path string

	// MIMEType selects the normaliser.
	MIMEType string

	// Content is the raw file content.
	Content []byte
}

// Name is the base name of Path.
func (f *SourceFile) Name() string {
	return filepath.Base(f.Path)
}

// FallbackTitle derives a title from the file name, without extension and
// with underscores and hyphens read as spaces.
func (f *SourceFile) FallbackTitle() string {
	name := f.Name()
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

// Metadata returns the keys every normaliser sets. An empty title falls
// back to FallbackTitle; an empty format is omitted.
func (f *SourceFile) Metadata(format, title string) map[string]any {
	if title == "" {
		title = f.FallbackTitle()
	}
	meta := map[string]any{MetadataSource: f.Name(), MetadataTitle: title}
	if format != "" {
		meta[MetadataFormat] = format
	}
	return meta
}
