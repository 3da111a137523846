package extract

import (
	"context"
	"os/exec"

	"github.com/m-mizutani/goerr/v2"
)

// ErrPDFToolNotFound means the pdftotext binary (poppler-utils) is not on
// PATH. PDF extraction shells out rather than linking a PDF parser.
var ErrPDFToolNotFound = goerr.New("pdftotext not found: install poppler (brew install poppler / apt install poppler-utils)")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		if name == "pdftotext" {
			return nil, ErrPDFToolNotFound
		}
		return nil, goerr.Wrap(err, "command not found", goerr.V("command", name))
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

// CheckPDFAvailable reports whether PDF extraction can work on this host.
func CheckPDFAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

func (x *Extractor) extractPDF(ctx context.Context, path string) (string, error) {
	// "-" sends the extracted text to stdout.
	out, err := x.runner.Run(ctx, "pdftotext", "-layout", "-nopgbrk", path, "-")
	if err != nil {
		return "", goerr.Wrap(err, "pdftotext failed")
	}

	return string(out), nil
}
