package model

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type DocumentID string

// NewDocumentID generates a new unique DocumentID
func NewDocumentID() DocumentID {
	return DocumentID(uuid.New().String())
}

// Format identifies the on-disk format of a document queued for ingestion.
type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
	FormatDocx Format = "docx"

	// FormatDoc is the legacy binary Word format. It is recognized so that
	// it can be rejected with a meaningful message instead of a parse error.
	FormatDoc Format = "doc"
)

// FormatFromPath derives the document format from the file extension.
// Unknown extensions return an empty Format.
func FormatFromPath(path string) Format {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "txt", "text", "md":
		return FormatText
	case "pdf":
		return FormatPDF
	case "docx":
		return FormatDocx
	case "doc":
		return FormatDoc
	default:
		return ""
	}
}

// Document is an external file to be ingested into a knowledge base.
// It is consumed entirely by the ingestion pipeline; only the chunks
// derived from it are retained.
type Document struct {
	ID         DocumentID
	Name       string
	Path       string
	Format     Format
	UploadedAt time.Time
}

// NewDocument builds a Document for a local file, deriving the format
// from the file extension.
func NewDocument(path string) *Document {
	return &Document{
		ID:         NewDocumentID(),
		Name:       filepath.Base(path),
		Path:       path,
		Format:     FormatFromPath(path),
		UploadedAt: time.Now(),
	}
}
