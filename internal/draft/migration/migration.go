// Package migration copies every device-local draft of a user into the
// shared remote store. Migration is additive: local records are never
// deleted by the copy, so a failed remote write can never lose data.
package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/draft/devicestore"
	"github.com/smallbiznis/folio/internal/draft/domain"
	"github.com/smallbiznis/folio/internal/draft/probe"
	"github.com/smallbiznis/folio/internal/draft/remotestore"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Status is the terminal outcome of one migration run.
type Status string

const (
	// StatusUnavailable: the remote table is not provisioned; nothing was attempted.
	StatusUnavailable Status = "unavailable"
	// StatusNoop: there were no local drafts to migrate.
	StatusNoop Status = "noop"
	// StatusComplete: every record landed remotely (skips allowed).
	StatusComplete Status = "complete"
	// StatusPartial: some records migrated, some failed.
	StatusPartial Status = "partial"
	// StatusFailed: every attempted record failed.
	StatusFailed Status = "failed"
)

// Report is the per-run tally surfaced to the admin panel.
type Report struct {
	RunID    int64  `json:"runId,omitempty"`
	Total    int    `json:"total"`
	Migrated int    `json:"migrated"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
	Status   Status `json:"status"`
	Message  string `json:"message"`
}

// Run is the audit row written after each migration run.
type Run struct {
	ID         snowflake.ID `gorm:"column:id;primaryKey"`
	UserID     string       `gorm:"column:user_id;not null;index"`
	Migrated   int          `gorm:"column:migrated;not null;default:0"`
	Skipped    int          `gorm:"column:skipped;not null;default:0"`
	Failed     int          `gorm:"column:failed;not null;default:0"`
	Status     string       `gorm:"column:status;not null"`
	StartedAt  time.Time    `gorm:"column:started_at;not null"`
	FinishedAt time.Time    `gorm:"column:finished_at;not null"`
}

// TableName sets the database table name.
func (Run) TableName() string { return "migration_runs" }

type localStore interface {
	List(ctx context.Context, userID string) ([]domain.Draft, error)
}

type remoteStore interface {
	Get(ctx context.Context, userID, id string) (domain.Draft, error)
	Import(ctx context.Context, draft domain.Draft) error
}

type tableProbe interface {
	Exists(ctx context.Context) bool
}

type Migrator struct {
	local  localStore
	remote remoteStore
	probe  tableProbe
	db     *gorm.DB
	genID  *snowflake.Node
	log    *zap.Logger
	clock  clock.Clock
}

type Params struct {
	fx.In

	Local  *devicestore.Store
	Remote *remotestore.Store
	Probe  *probe.Probe
	DB     *gorm.DB
	GenID  *snowflake.Node
	Log    *zap.Logger
	Clock  clock.Clock
}

func New(p Params) *Migrator {
	return newMigrator(p.Local, p.Remote, p.Probe, p.DB, p.GenID, p.Log, p.Clock)
}

func newMigrator(local localStore, remote remoteStore, tp tableProbe, db *gorm.DB, genID *snowflake.Node, log *zap.Logger, clk clock.Clock) *Migrator {
	return &Migrator{
		local:  local,
		remote: remote,
		probe:  tp,
		db:     db,
		genID:  genID,
		log:    log.Named("draft.migration"),
		clock:  clk,
	}
}

// Migrate copies all of the user's local drafts into the remote store.
// Records are processed one at a time and each attempt is isolated: a
// failing record is counted and the batch continues. Ids and timestamps
// carry over verbatim. When a remote copy already exists with a newer
// UpdatedAt than the local record, the local copy is skipped instead of
// silently overwriting newer remote content.
func (m *Migrator) Migrate(ctx context.Context, userID string) (Report, error) {
	started := m.clock.Now()

	if !m.probe.Exists(ctx) {
		return Report{
			Status:  StatusUnavailable,
			Message: "remote draft store is not provisioned",
		}, nil
	}

	drafts, err := m.local.List(ctx, userID)
	if err != nil {
		// The device store swallows its own failures; an error here is a
		// programming bug, not a migration outcome.
		return Report{}, err
	}
	if len(drafts) == 0 {
		return Report{
			Status:  StatusNoop,
			Message: "no local drafts to migrate",
		}, nil
	}

	report := Report{Total: len(drafts)}
	for _, draft := range drafts {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		existing, err := m.remote.Get(ctx, userID, draft.ID)
		if err == nil && existing.UpdatedAt.After(draft.UpdatedAt) {
			report.Skipped++
			m.log.Info("skipping draft with newer remote copy",
				zap.String("user_id", userID),
				zap.String("draft_id", draft.ID),
			)
			continue
		}

		if err := m.remote.Import(ctx, draft); err != nil {
			report.Failed++
			m.log.Warn("draft migration failed",
				zap.String("user_id", userID),
				zap.String("draft_id", draft.ID),
				zap.Error(err),
			)
			continue
		}
		report.Migrated++
	}

	switch {
	case report.Failed == 0:
		report.Status = StatusComplete
	case report.Migrated > 0:
		report.Status = StatusPartial
	default:
		report.Status = StatusFailed
	}
	report.Message = fmt.Sprintf("migrated %d of %d drafts (%d failed, %d skipped)",
		report.Migrated, report.Total, report.Failed, report.Skipped)

	report.RunID = m.recordRun(ctx, userID, report, started)
	return report, nil
}

// recordRun writes the audit row. Best effort: a failure to record the
// run never fails the migration itself.
func (m *Migrator) recordRun(ctx context.Context, userID string, report Report, started time.Time) int64 {
	if m.db == nil || m.genID == nil {
		return 0
	}

	run := Run{
		ID:         m.genID.Generate(),
		UserID:     userID,
		Migrated:   report.Migrated,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
		Status:     string(report.Status),
		StartedAt:  started,
		FinishedAt: m.clock.Now(),
	}
	if err := m.db.WithContext(ctx).Create(&run).Error; err != nil {
		m.log.Warn("migration run not recorded", zap.Error(err))
		return 0
	}
	return int64(run.ID)
}
