package pdf

import (
	"context"
	"io"

	"github.com/smallbiznis/folio/internal/draft/domain"
)

// Provider renders a draft document for preview. Drafts are unsent, so
// the rendering carries no legal numbering beyond what the draft holds.
type Provider interface {
	RenderDraft(ctx context.Context, draft domain.Draft) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) RenderDraft(ctx context.Context, draft domain.Draft) (io.Reader, error) {
	return nil, nil
}
