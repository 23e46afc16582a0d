package pdf

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/smallbiznis/folio/internal/draft/domain"
	"github.com/stretchr/testify/require"
)

func TestRenderDraftProducesPDF(t *testing.T) {
	p := New()

	draft := domain.Draft{
		ID:            "d-1",
		UserID:        "user-1",
		Type:          domain.DraftTypeInvoice,
		InvoiceNumber: "INV-001",
		IssueDate:     "2024-05-01",
		DueDate:       "2024-05-15",
		Currency:      "EUR",
		TaxRate:       19,
		Items: []domain.LineItem{
			{ID: "i-1", Description: "Consulting", Quantity: 8, Price: 120},
			{ID: "i-2", Description: "Travel", Quantity: 1.5, Price: 40},
		},
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	reader, err := p.RenderDraft(context.Background(), draft)
	require.NoError(t, err)

	payload, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
	require.Equal(t, "%PDF", string(payload[:4]))
}

func TestRenderDraftHandlesEmptyOffer(t *testing.T) {
	p := New()

	reader, err := p.RenderDraft(context.Background(), domain.Draft{
		ID:     "d-2",
		UserID: "user-1",
		Type:   domain.DraftTypeOffer,
	})
	require.NoError(t, err)

	payload, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NotEmpty(t, payload)
}
