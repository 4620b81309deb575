package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bkoehler/brokerdocs/internal/entity"
	"github.com/bkoehler/brokerdocs/internal/repository/memory"
)

func TestExportCustomersXLSX(t *testing.T) {
	customers := memory.NewCustomerStore()
	ctx := context.Background()
	brokerID := uuid.New()

	require.NoError(t, customers.Create(ctx, &entity.Customer{
		BrokerID: brokerID, Number: "2026-000001",
		Salutation: "Herr", FirstName: "Max", LastName: "Mustermann",
		Street: "Hauptstr. 1", ZipCode: "12345", City: "Musterstadt", Country: "Germany",
	}))
	require.NoError(t, customers.Create(ctx, &entity.Customer{
		BrokerID: brokerID, Number: "2026-000002",
		Salutation: "Frau", FirstName: "Erika", LastName: "Beispiel",
		Street: "Nebenweg 2", ZipCode: "54321", City: "Kleinstadt", Country: "Germany",
	}))

	svc := NewExportService(customers, nil)
	data, err := svc.ExportCustomersXLSX(ctx, brokerID, "")
	require.NoError(t, err)
	require.NotEmpty(t, data)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	header, err := wb.GetCellValue("Customers", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Customer Number", header)

	number, err := wb.GetCellValue("Customers", "A2")
	require.NoError(t, err)
	assert.Equal(t, "2026-000001", number)

	lastName, err := wb.GetCellValue("Customers", "E3")
	require.NoError(t, err)
	assert.Equal(t, "Beispiel", lastName)

	rows, err := wb.GetRows("Customers")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestExportCustomersXLSXWithFilter(t *testing.T) {
	customers := memory.NewCustomerStore()
	ctx := context.Background()
	brokerID := uuid.New()

	require.NoError(t, customers.Create(ctx, &entity.Customer{
		BrokerID: brokerID, Number: "2026-000001",
		FirstName: "Max", LastName: "Mustermann", Street: "Hauptstr. 1", ZipCode: "12345",
	}))
	require.NoError(t, customers.Create(ctx, &entity.Customer{
		BrokerID: brokerID, Number: "2026-000002",
		FirstName: "Erika", LastName: "Beispiel", Street: "Nebenweg 2", ZipCode: "54321",
	}))

	svc := NewExportService(customers, nil)
	data, err := svc.ExportCustomersXLSX(ctx, brokerID, "beispiel")
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Customers")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2026-000002", rows[1][0])
}
