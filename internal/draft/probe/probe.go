// Package probe answers one question: does the remote drafts table
// exist right now. It is fail-closed and stateless; callers own any
// caching policy.
package probe

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Probe struct {
	db  *gorm.DB
	log *zap.Logger
}

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

func New(p Params) *Probe {
	return &Probe{db: p.DB, log: p.Log.Named("draft.probe")}
}

// Exists runs a zero-row, zero-side-effect query against the drafts
// table. Any error is treated as "not provisioned"; the probe never
// propagates an exception because callers need a boolean.
func (p *Probe) Exists(ctx context.Context) bool {
	var n int
	err := p.db.WithContext(ctx).Raw("SELECT COUNT(1) FROM drafts WHERE 1 = 0").Scan(&n).Error
	if err != nil {
		p.log.Debug("drafts table probe failed", zap.Error(err))
		return false
	}
	return true
}
