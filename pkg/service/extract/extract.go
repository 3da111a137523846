package extract

import (
	"context"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/pika/pkg/model"
)

// ErrNoReadableText is the sentinel for documents that parsed cleanly but
// contained no extractable text. Callers short-circuit the rest of the
// ingestion pipeline instead of treating it as a failure.
var ErrNoReadableText = goerr.New("no readable text in document")

// Extractor converts raw documents into plain text by format. A parse
// failure is a per-document condition, not a system fault.
type Extractor struct {
	runner CommandRunner
}

func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner injects a command runner, used by tests to stub out the
// pdftotext subprocess.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// Extract reads the file at path and returns its plain text content.
func (x *Extractor) Extract(ctx context.Context, path string, format model.Format) (string, error) {
	var (
		text string
		err  error
	)

	switch format {
	case model.FormatText:
		text, err = x.extractText(path)
	case model.FormatPDF:
		text, err = x.extractPDF(ctx, path)
	case model.FormatDocx:
		text, err = x.extractDocx(path)
	case model.FormatDoc:
		// The Office 97-2003 binary format is rejected on purpose: the
		// caller gets an actionable message instead of a parse attempt.
		return "", goerr.Wrap(model.ErrUnsupportedFormat,
			"legacy .doc format is not supported, convert the document to .docx and retry",
			goerr.V("format", format), goerr.V("path", path))
	default:
		return "", goerr.Wrap(model.ErrUnsupportedFormat, "unknown document format",
			goerr.V("format", format), goerr.V("path", path))
	}

	if err != nil {
		return "", goerr.Wrap(err, "failed to extract document text",
			goerr.V("format", format), goerr.V("path", path))
	}

	if strings.TrimSpace(text) == "" {
		return "", goerr.Wrap(ErrNoReadableText, "document is empty",
			goerr.V("format", format), goerr.V("path", path))
	}

	return text, nil
}

func (x *Extractor) extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read text file")
	}
	return string(data), nil
}
