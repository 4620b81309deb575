// Package service holds the request-facing business logic: parameter
// validation, broker checks and the mapping of pipeline outcomes onto
// status codes.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bkoehler/brokerdocs/internal/common"
	"github.com/bkoehler/brokerdocs/internal/pipeline"
	"github.com/bkoehler/brokerdocs/internal/repository"
)

// IngestService handles document ingestion requests.
type IngestService struct {
	processor *pipeline.Processor
	brokers   repository.BrokerRepository
	logger    *slog.Logger
}

func NewIngestService(p *pipeline.Processor, brokers repository.BrokerRepository, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{processor: p, brokers: brokers, logger: logger}
}

// FileIngestRequest represents single-file ingestion parameters.
type FileIngestRequest struct {
	BrokerID string
	Path     string
}

// DirectoryIngestRequest represents directory ingestion parameters.
type DirectoryIngestRequest struct {
	BrokerID   string
	RootPath   string
	SkipHidden bool
}

// DirectoryIngestResult bundles per-file results with aggregate stats.
type DirectoryIngestResult struct {
	Statistics pipeline.DirStats
	Results    []pipeline.Result
}

// IngestFile ingests a single document.
func (s *IngestService) IngestFile(ctx context.Context, req FileIngestRequest) (pipeline.Result, error) {
	brokerID, err := s.checkBroker(ctx, req.BrokerID)
	if err != nil {
		return pipeline.Result{}, err
	}

	path := strings.TrimSpace(req.Path)
	if path == "" {
		s.logger.Error("ingest request missing path", "broker_id", brokerID)
		return pipeline.Result{}, status.Error(codes.InvalidArgument, "path is required")
	}

	s.logger.Info("starting file ingest", "broker_id", brokerID, "path", path, "request_id", common.RequestIDFromContext(ctx))
	r, err := s.processor.ProcessFile(ctx, brokerID, path)
	if err != nil {
		s.logger.Error("file ingest failed", "broker_id", brokerID, "path", path, "error", err)
		return r, status.Errorf(codes.Internal, "ingest: %v", err)
	}

	s.logger.Info("file ingest finished", "broker_id", brokerID, "status", r.Status, "document_id", r.DocumentID)
	return r, nil
}

// IngestDirectory ingests every document under a directory.
func (s *IngestService) IngestDirectory(ctx context.Context, req DirectoryIngestRequest) (*DirectoryIngestResult, error) {
	brokerID, err := s.checkBroker(ctx, req.BrokerID)
	if err != nil {
		return nil, err
	}

	root := strings.TrimSpace(req.RootPath)
	if root == "" {
		s.logger.Error("directory ingest missing root path", "broker_id", brokerID)
		return nil, status.Error(codes.InvalidArgument, "root_path is required")
	}

	s.logger.Info("starting directory ingest", "broker_id", brokerID, "root", root, "request_id", common.RequestIDFromContext(ctx))
	results, stats, err := s.processor.IngestDirectory(ctx, brokerID, root, req.SkipHidden)
	if err != nil {
		s.logger.Error("directory ingest failed", "broker_id", brokerID, "root", root, "error", err)
		return nil, status.Errorf(codes.Internal, "ingest directory: %v", err)
	}

	s.logger.Info("directory ingest finished", "broker_id", brokerID,
		"scanned", stats.Scanned, "succeeded", stats.Succeeded,
		"ambiguous", stats.Ambiguous, "unresolved", stats.Unresolved, "failed", stats.Failed)
	return &DirectoryIngestResult{Statistics: stats, Results: results}, nil
}

// checkBroker parses and verifies the broker id shared by all requests.
// Daemon-style callers that serve a single broker may pin it on the
// context instead of repeating it per request.
func (s *IngestService) checkBroker(ctx context.Context, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = common.BrokerIDFromContext(ctx)
	}
	brokerID, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Error("invalid broker_id format", "broker_id", raw, "error", err)
		return uuid.Nil, status.Error(codes.InvalidArgument, "broker_id must be a UUID")
	}
	if exists, _ := s.brokers.Exists(ctx, brokerID); !exists {
		s.logger.Error("broker not found", "broker_id", brokerID)
		return uuid.Nil, status.Error(codes.InvalidArgument, "broker not found")
	}
	return brokerID, nil
}
