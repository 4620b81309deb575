package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrExtraction marks an unexpected failure while reading a PDF. An
// empty text body is not an error; a file we cannot read at all is.
var ErrExtraction = errors.New("pdf text extraction failed")

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Timeout   time.Duration
	MaxPages  int // 0 = no limit
}

type Result struct {
	Text     string
	Pages    int
	Duration time.Duration
	Warnings []string
}

// Extractor turns a PDF file into raw page text: pdfcpu sanity-checks
// the file, pdftotext does the actual text layer dump.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// WithRunner swaps the command runner; tests use this to stub pdftotext.
func (e *Extractor) WithRunner(r Runner) *Extractor {
	e.runner = r
	return e
}

// Extract returns the newline-joined text of all pages.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	e.logger.Debug("starting pdf text extraction", "path", path)

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, cfg); err != nil {
		e.logger.Error("pdf validation failed", "path", path, "error", err)
		return Result{}, fmt.Errorf("%w: validate %s: %v", ErrExtraction, path, err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		e.logger.Error("pdf page count failed", "path", path, "error", err)
		return Result{}, fmt.Errorf("%w: page count %s: %v", ErrExtraction, path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	// pdftotext -layout -enc UTF-8 -eol unix [-l N] <path> -
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, "-")

	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return Result{Warnings: []string{string(errb)}}, fmt.Errorf("%w: pdftotext %s: %v", ErrExtraction, path, err)
	}

	// pdftotext separates pages with form feeds; the extractor wants
	// plain newlines between pages.
	text := strings.ReplaceAll(string(out), "\f", "\n")

	res := Result{
		Text:     text,
		Pages:    pages,
		Duration: time.Since(start),
	}
	if len(errb) > 0 {
		res.Warnings = []string{truncate(string(errb), maxStderr)}
	}
	e.logger.Debug("pdf text extraction ok", "path", path, "pages", pages, "bytes", len(text), "duration_ms", res.Duration.Milliseconds())
	return res, nil
}
