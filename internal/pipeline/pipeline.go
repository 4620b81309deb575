// Package pipeline runs a document through the full ingestion chain:
// text extraction, field parsing, customer resolution and archiving.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bkoehler/brokerdocs/constants"
	"github.com/bkoehler/brokerdocs/internal/archive"
	"github.com/bkoehler/brokerdocs/internal/entity"
	"github.com/bkoehler/brokerdocs/internal/extract"
	"github.com/bkoehler/brokerdocs/internal/pdftext"
	"github.com/bkoehler/brokerdocs/internal/repository"
	"github.com/bkoehler/brokerdocs/internal/resolve"
)

// Result is the per-file ingest outcome.
type Result struct {
	SourcePath      string                 `json:"source_path"`
	ArchivedPath    string                 `json:"archived_path,omitempty"`
	DocumentID      string                 `json:"document_id,omitempty"`
	Status          constants.IngestStatus `json:"status"`
	CustomerID      string                 `json:"customer_id,omitempty"`
	CustomerNumber  string                 `json:"customer_number,omitempty"`
	CustomerCreated bool                   `json:"customer_created,omitempty"`
	Candidates      []entity.Candidate     `json:"candidates,omitempty"`
	Category        constants.Category     `json:"category,omitempty"`
	PolicyNumbers   []string               `json:"policy_numbers,omitempty"`
	Err             string                 `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned    uint32 `json:"scanned"`
	Matched    uint32 `json:"matched"`
	Succeeded  uint32 `json:"succeeded"`
	Ambiguous  uint32 `json:"ambiguous"`
	Unresolved uint32 `json:"unresolved"`
	Failed     uint32 `json:"failed"`
}

// TextExtractor is the behavior the pipeline needs from the PDF layer.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (pdftext.Result, error)
}

// Processor ties the stages together. It owns no state of its own;
// everything durable lives in the repositories and on disk.
type Processor struct {
	extractor TextExtractor
	resolver  *resolve.Resolver
	archive   *archive.Archive
	documents repository.DocumentRepository
	brokers   repository.BrokerRepository
	logger    *slog.Logger

	// Concurrency bound for directory ingests.
	parallel int
}

func NewProcessor(
	extractor TextExtractor,
	resolver *resolve.Resolver,
	arch *archive.Archive,
	documents repository.DocumentRepository,
	brokers repository.BrokerRepository,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		extractor: extractor,
		resolver:  resolver,
		archive:   arch,
		documents: documents,
		brokers:   brokers,
		logger:    logger,
		parallel:  4,
	}
}

// WithParallelism sets the worker bound for directory ingests.
func (p *Processor) WithParallelism(n int) *Processor {
	if n > 0 {
		p.parallel = n
	}
	return p
}

// ProcessFile ingests a single PDF for the broker. Ambiguous and
// unresolved are reported through the result, not as errors; the
// returned error means the pipeline itself failed and the source file
// was left in place.
func (p *Processor) ProcessFile(ctx context.Context, brokerID uuid.UUID, path string) (Result, error) {
	out := Result{SourcePath: path, Status: constants.IngestFailed}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("absolute path: %w", err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return out, fmt.Errorf("unsupported extension %q", ext)
	}

	broker, err := p.brokers.GetByID(ctx, brokerID)
	if err != nil {
		return out, fmt.Errorf("load broker: %w", err)
	}

	text, err := p.extractor.Extract(ctx, abs)
	if err != nil {
		return out, fmt.Errorf("extract text: %w", err)
	}

	fields := extract.Parse(text.Text)
	if err := extract.ValidateFields(&fields); err != nil {
		return out, fmt.Errorf("validate fields: %w", err)
	}
	out.Category = fields.Category
	out.PolicyNumbers = fields.PolicyNumbers

	res, err := p.resolver.Resolve(ctx, brokerID, &fields)
	if err != nil {
		return out, fmt.Errorf("resolve customer: %w", err)
	}

	switch res.Outcome {
	case resolve.OutcomeAmbiguous:
		// Leave the file untouched and persist nothing: a human has to
		// pick before anything may be filed.
		out.Status = constants.IngestAmbiguous
		out.Candidates = res.Candidates
		p.logger.Warn("document needs manual assignment",
			"path", abs, "broker_id", brokerID, "candidates", len(res.Candidates))
		return out, nil

	case resolve.OutcomeUnresolved:
		dir, err := p.archive.UnassignedDir(broker.Slug)
		if err != nil {
			return out, err
		}
		final, err := p.archive.Place(abs, dir)
		if err != nil {
			return out, fmt.Errorf("file unassigned document: %w", err)
		}
		doc, err := p.storeDocument(ctx, brokerID, nil, final, &fields)
		if err != nil {
			return out, err
		}
		out.Status = constants.IngestUnresolved
		out.ArchivedPath = final
		out.DocumentID = doc.ID.String()
		p.logger.Info("document filed without customer", "path", final, "broker_id", brokerID)
		return out, nil

	case resolve.OutcomeMatched, resolve.OutcomeCreated:
		customer := res.Customer
		dir, err := p.archive.CustomerDir(broker.Slug, customer)
		if err != nil {
			return out, err
		}
		final, err := p.archive.Place(abs, dir)
		if err != nil {
			return out, fmt.Errorf("file customer document: %w", err)
		}
		doc, err := p.storeDocument(ctx, brokerID, &customer.ID, final, &fields)
		if err != nil {
			// The file already moved; the path in the error is where it
			// ended up so nothing is lost.
			return out, fmt.Errorf("store document record for %s: %w", final, err)
		}
		if res.Created {
			out.Status = constants.IngestCreated
		} else {
			out.Status = constants.IngestMatched
		}
		out.ArchivedPath = final
		out.DocumentID = doc.ID.String()
		out.CustomerID = customer.ID.String()
		out.CustomerNumber = customer.Number
		out.CustomerCreated = res.Created
		p.logger.Info("document filed",
			"path", final, "customer", customer.Number, "created", res.Created, "category", fields.Category)
		return out, nil

	default:
		return out, fmt.Errorf("unexpected resolution outcome %q", res.Outcome)
	}
}

// storeDocument persists the document row. Happens strictly after the
// file reached its final location.
func (p *Processor) storeDocument(ctx context.Context, brokerID uuid.UUID, customerID *uuid.UUID, path string, f *entity.ExtractedFields) (*entity.Document, error) {
	doc := &entity.Document{
		BrokerID:       brokerID,
		CustomerID:     customerID,
		FilePath:       path,
		RawText:        f.RawText,
		NormalizedText: f.NormalizedText,
		PolicyNumbers:  f.PolicyNumbers,
		LicensePlates:  f.LicensePlates,
		Category:       f.Category,
		Status:         constants.ContractActive,
	}
	if err := p.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

// IngestDirectory walks root and processes every PDF with a bounded
// worker pool. Per-file failures land in the results, they never abort
// the walk.
func (p *Processor) IngestDirectory(ctx context.Context, brokerID uuid.UUID, root string, skipHidden bool) ([]Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var paths []string
	var stats DirStats
	var failed []Result

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			stats.Scanned++
			stats.Failed++
			failed = append(failed, Result{SourcePath: path, Status: constants.IngestFailed, Err: walkErr.Error()})
			return nil
		}
		if skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return failed, stats, fmt.Errorf("walk %s: %w", root, err)
	}

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallel)
	for idx, path := range paths {
		g.Go(func() error {
			r, perr := p.ProcessFile(gctx, brokerID, path)
			if perr != nil {
				r.Err = perr.Error()
			}
			results[idx] = r
			return nil
		})
	}
	// Workers never return errors; Wait only propagates ctx cancellation.
	if werr := g.Wait(); werr != nil {
		return results, stats, werr
	}

	for _, r := range results {
		switch {
		case r.Err != "":
			stats.Failed++
		case r.Status == constants.IngestAmbiguous:
			stats.Ambiguous++
		case r.Status == constants.IngestUnresolved:
			stats.Unresolved++
		default:
			stats.Succeeded++
		}
	}
	results = append(results, failed...)
	return results, stats, nil
}

// isHidden reports whether any path element starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if strings.HasPrefix(part, ".") && part != "." && part != ".." {
			return true
		}
	}
	return false
}
