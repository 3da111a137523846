package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/pika/pkg/utils/logging"
)

func TestWarnEphemeralIndex(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := logging.With(context.Background(), logging.New("warn", buf))

	cfg := &config{indexBackend: "memory"}
	cfg.warnEphemeralIndex(ctx)
	gt.S(t, buf.String()).Contains("not persisted")
	gt.S(t, buf.String()).Contains("--index postgres")

	buf.Reset()
	cfg = &config{indexBackend: "postgres"}
	cfg.warnEphemeralIndex(ctx)
	gt.Equal(t, buf.String(), "")
}
