package codec

import (
	"testing"
	"time"

	"github.com/smallbiznis/folio/internal/draft/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullDraft() domain.Draft {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return domain.Draft{
		ID:            "0f8fad5b-d9cb-469f-a165-70867728950e",
		UserID:        "user-1",
		BusinessID:    "biz-1",
		Type:          domain.DraftTypeInvoice,
		InvoiceNumber: "INV-0042",
		ClientID:      "client-7",
		IssueDate:     "2026-03-14",
		DueDate:       "2026-04-14",
		Currency:      "EUR",
		TaxRate:       19,
		Notes:         "net 30",
		TemplateID:    "classic",
		Signature:     "data:image/png;base64,iVBOR",
		Items: []domain.LineItem{
			{ID: "li-1", Description: "Design", Quantity: 2, Price: 50},
			{ID: "li-2", Description: "Hosting", Quantity: 12, Price: 9.99},
		},
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}
}

func TestRoundTripIsLossless(t *testing.T) {
	want := fullDraft()

	record, err := FromDraft(want)
	require.NoError(t, err)

	got, err := record.ToDraft()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestColumnMapping(t *testing.T) {
	record, err := FromDraft(fullDraft())
	require.NoError(t, err)

	assert.Equal(t, "invoice", record.DocType)
	assert.Equal(t, "INV-0042", record.InvoiceNumber)
	assert.Equal(t, "client-7", record.ClientID)
	assert.Equal(t, "classic", record.TemplateID)
	assert.JSONEq(t,
		`[{"id":"li-1","description":"Design","quantity":2,"price":50},
		  {"id":"li-2","description":"Hosting","quantity":12,"price":9.99}]`,
		string(record.Items))
}

func TestNilItemsBecomeEmptyArray(t *testing.T) {
	d := fullDraft()
	d.Items = nil

	record, err := FromDraft(d)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(record.Items))

	got, err := record.ToDraft()
	require.NoError(t, err)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
}

func TestEmptyItemsColumnTolerated(t *testing.T) {
	record, err := FromDraft(fullDraft())
	require.NoError(t, err)
	record.Items = nil

	got, err := record.ToDraft()
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestMalformedItemsColumnRejected(t *testing.T) {
	record, err := FromDraft(fullDraft())
	require.NoError(t, err)
	record.Items = []byte("{not json")

	_, err = record.ToDraft()
	require.Error(t, err)
}

func TestTimesNormalizedToUTC(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	d := fullDraft()
	d.CreatedAt = time.Date(2026, 3, 14, 10, 0, 0, 0, loc)
	d.UpdatedAt = d.CreatedAt

	record, err := FromDraft(d)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, record.CreatedAt.Location())
	assert.Equal(t, 9, record.CreatedAt.Hour())
}
