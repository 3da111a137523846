package extract_test

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pika/pkg/model"
	"github.com/m-mizutani/pika/pkg/service/extract"
)

func TestExtractText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	gt.NoError(t, os.WriteFile(path, []byte("hello retrieval"), 0o644))

	x := extract.New()
	text, err := x.Extract(context.Background(), path, model.FormatText)
	gt.NoError(t, err)
	gt.Equal(t, text, "hello retrieval")
}

func TestExtractEmptyText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	gt.NoError(t, os.WriteFile(path, []byte("   \n\t  "), 0o644))

	x := extract.New()
	_, err := x.Extract(context.Background(), path, model.FormatText)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, extract.ErrNoReadableText))
}

func TestExtractDocRejected(t *testing.T) {
	x := extract.New()
	_, err := x.Extract(context.Background(), "legacy.doc", model.FormatDoc)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUnsupportedFormat))
	gt.S(t, err.Error()).Contains(".docx")
}

func TestExtractUnknownFormat(t *testing.T) {
	x := extract.New()
	_, err := x.Extract(context.Background(), "data.bin", model.Format(""))
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrUnsupportedFormat))
}

func writeDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.docx")
	f, err := os.Create(path)
	gt.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	entry, err := w.Create("word/document.xml")
	gt.NoError(t, err)
	_, err = entry.Write([]byte(documentXML))
	gt.NoError(t, err)
	gt.NoError(t, w.Close())
	return path
}

func TestExtractDocxParagraphs(t *testing.T) {
	path := writeDocx(t, `<?xml version="1.0"?>
<document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
  </body>
</document>`)

	x := extract.New()
	text, err := x.Extract(context.Background(), path, model.FormatDocx)
	gt.NoError(t, err)
	gt.S(t, text).Contains("First paragraph.")
	gt.S(t, text).Contains("Second paragraph.")
}

func TestExtractDocxTableFallback(t *testing.T) {
	path := writeDocx(t, `<?xml version="1.0"?>
<document>
  <body>
    <tbl>
      <tr>
        <tc><p><r><t>cell one</t></r></p></tc>
        <tc><p><r><t>cell two</t></r></p></tc>
      </tr>
    </tbl>
  </body>
</document>`)

	x := extract.New()
	text, err := x.Extract(context.Background(), path, model.FormatDocx)
	gt.NoError(t, err)
	gt.S(t, text).Contains("cell one")
	gt.S(t, text).Contains("cell two")
}

func TestExtractDocxNotArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	gt.NoError(t, os.WriteFile(path, []byte("this is not a zip"), 0o644))

	x := extract.New()
	_, err := x.Extract(context.Background(), path, model.FormatDocx)
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("docx")
}

type stubRunner struct {
	output []byte
	err    error
	called [][]string
}

func (s *stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	s.called = append(s.called, append([]string{name}, args...))
	return s.output, s.err
}

func TestExtractPDF(t *testing.T) {
	runner := &stubRunner{output: []byte("extracted pdf text")}
	x := extract.NewWithRunner(runner)

	text, err := x.Extract(context.Background(), "doc.pdf", model.FormatPDF)
	gt.NoError(t, err)
	gt.Equal(t, text, "extracted pdf text")

	gt.A(t, runner.called).Length(1)
	gt.Equal(t, runner.called[0], []string{"pdftotext", "-layout", "-nopgbrk", "doc.pdf", "-"})
}

func TestExtractPDFToolMissing(t *testing.T) {
	runner := &stubRunner{err: extract.ErrPDFToolNotFound}
	x := extract.NewWithRunner(runner)

	_, err := x.Extract(context.Background(), "doc.pdf", model.FormatPDF)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, extract.ErrPDFToolNotFound))
}

func TestExtractPDFCommandFailure(t *testing.T) {
	runner := &stubRunner{err: goerr.New("exit status 1")}
	x := extract.NewWithRunner(runner)

	_, err := x.Extract(context.Background(), "broken.pdf", model.FormatPDF)
	gt.Error(t, err)
	gt.S(t, err.Error()).Contains("pdftotext")
}
