// Package codec owns the translation between the in-memory Draft shape
// (camelCase fields) and the persisted row shape (snake_case columns).
// The mapping is total in both directions: every Draft field round-trips.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smallbiznis/folio/internal/draft/domain"
	"gorm.io/datatypes"
)

// Record is one persisted draft row.
type Record struct {
	ID            string         `gorm:"column:id;primaryKey"`
	UserID        string         `gorm:"column:user_id;not null;index"`
	BusinessID    string         `gorm:"column:business_id;not null;default:''"`
	DocType       string         `gorm:"column:doc_type;not null;check:chk_drafts_doc_type,doc_type IN ('invoice','offer')"`
	InvoiceNumber string         `gorm:"column:invoice_number;not null;default:''"`
	ClientID      string         `gorm:"column:client_id;not null;default:''"`
	IssueDate     string         `gorm:"column:issue_date;not null;default:''"`
	DueDate       string         `gorm:"column:due_date;not null;default:''"`
	Currency      string         `gorm:"column:currency;not null;default:''"`
	TaxRate       float64        `gorm:"column:tax_rate;not null;default:0"`
	Notes         string         `gorm:"column:notes;not null;default:''"`
	TemplateID    string         `gorm:"column:template_id;not null;default:''"`
	Signature     string         `gorm:"column:signature;not null;default:''"`
	Items         datatypes.JSON `gorm:"column:items;type:text"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null"`
}

// TableName sets the database table name.
func (Record) TableName() string { return "drafts" }

// FromDraft converts the in-memory shape to a row.
func FromDraft(d domain.Draft) (Record, error) {
	items := d.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return Record{}, fmt.Errorf("encode draft items: %w", err)
	}

	return Record{
		ID:            d.ID,
		UserID:        d.UserID,
		BusinessID:    d.BusinessID,
		DocType:       string(d.Type),
		InvoiceNumber: d.InvoiceNumber,
		ClientID:      d.ClientID,
		IssueDate:     d.IssueDate,
		DueDate:       d.DueDate,
		Currency:      d.Currency,
		TaxRate:       d.TaxRate,
		Notes:         d.Notes,
		TemplateID:    d.TemplateID,
		Signature:     d.Signature,
		Items:         datatypes.JSON(payload),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}, nil
}

// ToDraft converts a row back to the in-memory shape.
func (r Record) ToDraft() (domain.Draft, error) {
	items := []domain.LineItem{}
	if len(r.Items) > 0 {
		if err := json.Unmarshal(r.Items, &items); err != nil {
			return domain.Draft{}, fmt.Errorf("decode draft items: %w", err)
		}
	}

	return domain.Draft{
		ID:            r.ID,
		UserID:        r.UserID,
		BusinessID:    r.BusinessID,
		Type:          domain.DraftType(r.DocType),
		InvoiceNumber: r.InvoiceNumber,
		ClientID:      r.ClientID,
		IssueDate:     r.IssueDate,
		DueDate:       r.DueDate,
		Currency:      r.Currency,
		TaxRate:       r.TaxRate,
		Notes:         r.Notes,
		TemplateID:    r.TemplateID,
		Signature:     r.Signature,
		Items:         items,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}, nil
}
