package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/folio/internal/draft/domain"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) RenderDraft(ctx context.Context, draft domain.Draft) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	title := "Invoice (draft)"
	if draft.Type == domain.DraftTypeOffer {
		title = "Offer (draft)"
	}

	m.AddRow(10,
		text.NewCol(12, title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Number: "+orDash(draft.InvoiceNumber), props.Text{Top: 0}),
			text.New("Date of issue: "+orDash(draft.IssueDate), props.Text{Top: 4}),
			text.New("Date due: "+orDash(draft.DueDate), props.Text{Top: 8}),
			text.New("Currency: "+orDash(draft.Currency), props.Text{Top: 12}),
		),
		col.New(6),
	)

	if draft.Notes != "" {
		m.AddRow(20,
			text.NewCol(12, draft.Notes, props.Text{Size: 9}),
		)
	}

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range draft.Items {
		m.AddRow(15,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, formatQty(item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.Price, draft.Currency), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.Amount(), draft.Currency), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, formatAmount(draft.Subtotal(), draft.Currency), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, fmt.Sprintf("Tax (%.1f%%)", draft.TaxRate), props.Text{Size: 9}),
		text.NewCol(2, formatAmount(draft.Total()-draft.Subtotal(), draft.Currency), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, formatAmount(draft.Total(), draft.Currency), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func formatQty(q float64) string {
	if q == float64(int64(q)) {
		return fmt.Sprintf("%d", int64(q))
	}
	return fmt.Sprintf("%.2f", q)
}

func formatAmount(v float64, currency string) string {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f %s", v, currency)
}
