package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	draftdomain "github.com/smallbiznis/folio/internal/draft/domain"
)

type draftRequest struct {
	ID            string             `json:"id"`
	BusinessID    string             `json:"businessId"`
	Type          string             `json:"type" binding:"required"`
	InvoiceNumber string             `json:"invoiceNumber"`
	ClientID      string             `json:"clientId"`
	IssueDate     string             `json:"issueDate"`
	DueDate       string             `json:"dueDate"`
	Currency      string             `json:"currency"`
	TaxRate       float64            `json:"taxRate"`
	Notes         string             `json:"notes"`
	TemplateID    string             `json:"templateId"`
	Signature     string             `json:"signature"`
	Items         []draftItemRequest `json:"items"`
}

type draftItemRequest struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

func (r draftRequest) toDraft() draftdomain.Draft {
	items := make([]draftdomain.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, draftdomain.LineItem{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	return draftdomain.Draft{
		ID:            strings.TrimSpace(r.ID),
		BusinessID:    r.BusinessID,
		Type:          draftdomain.DraftType(strings.TrimSpace(r.Type)),
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
	}
}

func (s *Server) ListDrafts(c *gin.Context) {
	drafts, err := s.draftSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": drafts})
}

func (s *Server) GetDraft(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}

	draft, err := s.draftSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": draft})
}

func (s *Server) CreateDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}

	saved, err := s.draftSvc.Save(c.Request.Context(), req.toDraft())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": saved})
}

func (s *Server) UpdateDraft(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}

	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("request", "invalid_request", "invalid request body"))
		return
	}
	if req.ID != "" && req.ID != id {
		AbortWithError(c, newValidationError("id", "id_mismatch", "body id does not match path id"))
		return
	}

	draft := req.toDraft()
	draft.ID = id

	saved, err := s.draftSvc.Save(c.Request.Context(), draft)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": saved})
}

func (s *Server) DeleteDraft(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}

	existed, err := s.draftSvc.Delete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !existed {
		AbortWithError(c, draftdomain.ErrNotFound)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) RenderDraftPDF(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}

	draft, err := s.draftSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	reader, err := s.pdf.RenderDraft(c.Request.Context(), draft)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if reader == nil {
		AbortWithError(c, draftdomain.ErrNotFound)
		return
	}

	c.Header("Content-Disposition", `inline; filename="draft-`+id+`.pdf"`)
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, nil)
}

func draftID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if _, err := uuid.Parse(id); err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return "", false
	}
	return id, true
}
