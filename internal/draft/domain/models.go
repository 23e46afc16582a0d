// Package domain contains the draft model and the contracts shared by
// the device-local and remote draft stores.
package domain

import "time"

// DraftType distinguishes invoices from offers. Both share the Draft shape.
type DraftType string

const (
	DraftTypeInvoice DraftType = "invoice"
	DraftTypeOffer   DraftType = "offer"
)

func (t DraftType) Valid() bool {
	return t == DraftTypeInvoice || t == DraftTypeOffer
}

// LineItem is one billable line on a draft.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

// Amount returns quantity times price for the line.
func (i LineItem) Amount() float64 {
	return i.Quantity * i.Price
}

// Draft is an unsent invoice or offer. The id is minted client-side on
// first save and immutable afterwards; it never depends on which store
// holds the record.
type Draft struct {
	ID            string     `json:"id"`
	UserID        string     `json:"userId"`
	BusinessID    string     `json:"businessId"`
	Type          DraftType  `json:"type"`
	InvoiceNumber string     `json:"invoiceNumber,omitempty"`
	ClientID      string     `json:"clientId,omitempty"`
	IssueDate     string     `json:"issueDate,omitempty"`
	DueDate       string     `json:"dueDate,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	TaxRate       float64    `json:"taxRate"`
	Notes         string     `json:"notes,omitempty"`
	TemplateID    string     `json:"templateId,omitempty"`
	Signature     string     `json:"signature,omitempty"`
	Items         []LineItem `json:"items"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Subtotal sums the line amounts before tax.
func (d Draft) Subtotal() float64 {
	var total float64
	for _, item := range d.Items {
		total += item.Amount()
	}
	return total
}

// Total applies the tax rate to the subtotal.
func (d Draft) Total() float64 {
	return d.Subtotal() * (1 + d.TaxRate/100)
}
