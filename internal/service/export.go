package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/bkoehler/brokerdocs/internal/repository"
)

// ExportService produces XLSX bytes from the customer base.
type ExportService struct {
	customers repository.CustomerRepository
	logger    *slog.Logger
}

func NewExportService(customers repository.CustomerRepository, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{customers: customers, logger: logger}
}

// ExportCustomersXLSX returns an XLSX workbook of the broker's customers,
// optionally filtered with the same token query Search uses.
func (s *ExportService) ExportCustomersXLSX(ctx context.Context, brokerID uuid.UUID, query string) ([]byte, error) {
	start := time.Now()

	customers, err := s.customers.Search(ctx, brokerID, query)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Customers"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the workbook opens on Customers.
	if index, _ := f.GetSheetIndex("Sheet1"); index != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Customer Number",
		"Status",
		"Salutation",
		"First Name",
		"Last Name",
		"Street",
		"Zip",
		"City",
		"Country",
		"Email",
		"Phone",
		"Created",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, c := range customers {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, c.Number)
		write(2, c.ActiveStatus)
		write(3, c.Salutation)
		write(4, c.FirstName)
		write(5, c.LastName)
		write(6, c.Street)
		write(7, c.ZipCode)
		write(8, c.City)
		write(9, c.Country)
		write(10, c.Email)
		write(11, c.Phone)
		if !c.CreatedAt.IsZero() {
			write(12, c.CreatedAt.Format("2006-01-02"))
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	s.logger.Info("customer export built",
		"broker_id", brokerID, "rows", len(customers), "bytes", buf.Len(), "duration", time.Since(start))
	return buf.Bytes(), nil
}
