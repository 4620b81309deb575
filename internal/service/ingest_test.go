package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bkoehler/brokerdocs/constants"
	"github.com/bkoehler/brokerdocs/internal/archive"
	"github.com/bkoehler/brokerdocs/internal/common"
	"github.com/bkoehler/brokerdocs/internal/entity"
	"github.com/bkoehler/brokerdocs/internal/pdftext"
	"github.com/bkoehler/brokerdocs/internal/pipeline"
	"github.com/bkoehler/brokerdocs/internal/repository/memory"
	"github.com/bkoehler/brokerdocs/internal/resolve"
)

type cannedExtractor struct {
	text string
}

func (c *cannedExtractor) Extract(context.Context, string) (pdftext.Result, error) {
	return pdftext.Result{Text: c.text, Pages: 1}, nil
}

const testLetter = "Hausratversicherung\n\n" +
	"Frau Erika Beispiel\nNebenweg 2\n54321 Kleinstadt\n"

func newIngestFixture(t *testing.T) (*IngestService, *entity.Broker, string) {
	t.Helper()
	ctx := context.Background()

	customers := memory.NewCustomerStore()
	documents := memory.NewDocumentStore()
	brokers := memory.NewBrokerStore()
	broker := &entity.Broker{Name: "Acme", Slug: "acme"}
	require.NoError(t, brokers.Create(ctx, broker))

	root := t.TempDir()
	arch := archive.New(root, filepath.Join(root, "_unassigned"), nil)
	resolver := resolve.NewResolver(customers, nil)
	processor := pipeline.NewProcessor(&cannedExtractor{text: testLetter}, resolver, arch, documents, brokers, nil)

	inbox := t.TempDir()
	return NewIngestService(processor, brokers, nil), broker, inbox
}

func dropPDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

func TestIngestFileRejectsBadBrokerID(t *testing.T) {
	svc, _, inbox := newIngestFixture(t)

	_, err := svc.IngestFile(context.Background(), FileIngestRequest{
		BrokerID: "not-a-uuid",
		Path:     dropPDF(t, inbox, "a.pdf"),
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestIngestFileRejectsUnknownBroker(t *testing.T) {
	svc, _, inbox := newIngestFixture(t)

	_, err := svc.IngestFile(context.Background(), FileIngestRequest{
		BrokerID: "0e8b3a83-7a51-4c36-9a54-3c0d2c4f86aa",
		Path:     dropPDF(t, inbox, "a.pdf"),
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestIngestFileBrokerFromContext(t *testing.T) {
	svc, broker, inbox := newIngestFixture(t)

	// Empty broker on the request falls back to the context, the way the
	// single-broker daemon pins it once at startup.
	ctx := common.WithBrokerID(context.Background(), broker.ID.String())
	r, err := svc.IngestFile(ctx, FileIngestRequest{Path: dropPDF(t, inbox, "ctx.pdf")})
	require.NoError(t, err)
	assert.Equal(t, constants.IngestCreated, r.Status)

	_, err = svc.IngestFile(context.Background(), FileIngestRequest{Path: dropPDF(t, inbox, "noctx.pdf")})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestIngestFileRequiresPath(t *testing.T) {
	svc, broker, _ := newIngestFixture(t)

	_, err := svc.IngestFile(context.Background(), FileIngestRequest{BrokerID: broker.ID.String()})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestIngestFileHappyPath(t *testing.T) {
	svc, broker, inbox := newIngestFixture(t)

	r, err := svc.IngestFile(context.Background(), FileIngestRequest{
		BrokerID: broker.ID.String(),
		Path:     dropPDF(t, inbox, "hausrat.pdf"),
	})
	require.NoError(t, err)
	assert.Equal(t, constants.IngestCreated, r.Status)
	assert.Equal(t, constants.HouseholdContents, r.Category)
	assert.FileExists(t, r.ArchivedPath)
}

func TestIngestDirectoryRequiresRoot(t *testing.T) {
	svc, broker, _ := newIngestFixture(t)

	_, err := svc.IngestDirectory(context.Background(), DirectoryIngestRequest{BrokerID: broker.ID.String()})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestIngestDirectoryHappyPath(t *testing.T) {
	svc, broker, inbox := newIngestFixture(t)
	dropPDF(t, inbox, "eins.pdf")
	dropPDF(t, inbox, "zwei.pdf")

	res, err := svc.IngestDirectory(context.Background(), DirectoryIngestRequest{
		BrokerID:   broker.ID.String(),
		RootPath:   inbox,
		SkipHidden: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Statistics.Matched)
	// Same letter twice: first creates the customer, the second matches.
	assert.EqualValues(t, 2, res.Statistics.Succeeded)
	assert.Len(t, res.Results, 2)
}
