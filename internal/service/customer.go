package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bkoehler/brokerdocs/internal/common"
	"github.com/bkoehler/brokerdocs/internal/entity"
	"github.com/bkoehler/brokerdocs/internal/repository"
)

// CustomerService answers read queries over the customer base.
type CustomerService struct {
	customers repository.CustomerRepository
	documents repository.DocumentRepository
	logger    *slog.Logger
}

func NewCustomerService(customers repository.CustomerRepository, documents repository.DocumentRepository, logger *slog.Logger) *CustomerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerService{customers: customers, documents: documents, logger: logger}
}

// Get returns one customer by id.
func (s *CustomerService) Get(ctx context.Context, rawID string) (*entity.Customer, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil {
		return nil, common.InvalidArgumentError("customer id must be a UUID")
	}
	customer, err := s.customers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, common.NotFoundError("customer not found")
		}
		s.logger.Error("customer lookup failed", "customer_id", id, "error", err)
		return nil, common.InternalErrorf("get customer: %v", err)
	}
	return customer, nil
}

// Search returns a broker's customers matching every whitespace-separated
// token of q. An empty query lists the whole base.
func (s *CustomerService) Search(ctx context.Context, rawBrokerID, q string) ([]*entity.Customer, error) {
	brokerID, err := uuid.Parse(strings.TrimSpace(rawBrokerID))
	if err != nil {
		return nil, common.InvalidArgumentError("broker_id must be a UUID")
	}

	customers, err := s.customers.Search(ctx, brokerID, strings.TrimSpace(q))
	if err != nil {
		s.logger.Error("customer search failed", "broker_id", brokerID, "query", q, "error", err)
		return nil, common.InternalErrorf("search customers: %v", err)
	}
	s.logger.Debug("customer search", "broker_id", brokerID, "query", q, "hits", len(customers))
	return customers, nil
}

// Documents returns a customer's documents.
func (s *CustomerService) Documents(ctx context.Context, rawCustomerID string) ([]*entity.Document, error) {
	id, err := uuid.Parse(strings.TrimSpace(rawCustomerID))
	if err != nil {
		return nil, common.InvalidArgumentError("customer id must be a UUID")
	}
	docs, err := s.documents.ListByCustomer(ctx, id)
	if err != nil {
		s.logger.Error("document list failed", "customer_id", id, "error", err)
		return nil, common.InternalErrorf("list documents: %v", err)
	}
	return docs, nil
}

// Unassigned returns the broker's documents awaiting manual assignment.
func (s *CustomerService) Unassigned(ctx context.Context, rawBrokerID string) ([]*entity.Document, error) {
	brokerID, err := uuid.Parse(strings.TrimSpace(rawBrokerID))
	if err != nil {
		return nil, common.InvalidArgumentError("broker_id must be a UUID")
	}
	docs, err := s.documents.ListUnassigned(ctx, brokerID)
	if err != nil {
		s.logger.Error("unassigned list failed", "broker_id", brokerID, "error", err)
		return nil, common.InternalErrorf("list unassigned: %v", err)
	}
	return docs, nil
}
