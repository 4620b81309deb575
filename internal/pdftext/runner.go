package pdftext

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner abstracts the pdftotext invocation so tests can feed canned
// page text instead of shelling out.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// maxStderr caps how much of pdftotext's stderr ends up in logs and
// result warnings. Damaged PDFs can produce megabytes of syntax noise.
const maxStderr = 8 << 10

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		r.logger.Error("pdftotext run failed",
			"binary", name,
			"args", strings.Join(args, " "),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
			"stderr", truncate(stderr.String(), maxStderr),
		)
	} else {
		r.logger.Debug("pdftotext run ok",
			"binary", name,
			"duration_ms", elapsed.Milliseconds(),
			"stdout_bytes", stdout.Len(),
			"stderr_bytes", stderr.Len(),
		)
	}

	return stdout.Bytes(), stderr.Bytes(), err
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
