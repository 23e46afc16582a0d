// Package remotestore keeps drafts in the shared backend table,
// reachable from any device. Every operation is gated on the
// provisioning probe so "table absent" surfaces as ErrStoreUnavailable,
// never as a missing record or a generic failure.
package remotestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/draft/codec"
	"github.com/smallbiznis/folio/internal/draft/domain"
	"github.com/smallbiznis/folio/internal/draft/probe"
	pkgdb "github.com/smallbiznis/folio/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Store struct {
	db    *gorm.DB
	probe *probe.Probe
	log   *zap.Logger
	clock clock.Clock
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Probe *probe.Probe
	Log   *zap.Logger
	Clock clock.Clock
}

func New(p Params) *Store {
	return &Store{
		db:    p.DB,
		probe: p.Probe,
		log:   p.Log.Named("draft.remotestore"),
		clock: p.Clock,
	}
}

func (s *Store) List(ctx context.Context, userID string) ([]domain.Draft, error) {
	if !s.probe.Exists(ctx) {
		return nil, domain.ErrStoreUnavailable
	}

	var records []codec.Record
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&records).Error
	if err != nil {
		return nil, s.normalize(err)
	}

	drafts := make([]domain.Draft, 0, len(records))
	for _, record := range records {
		draft, err := record.ToDraft()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRemoteFailure, err)
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (domain.Draft, error) {
	if !s.probe.Exists(ctx) {
		return domain.Draft{}, domain.ErrStoreUnavailable
	}

	var record codec.Record
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Draft{}, domain.ErrNotFound
		}
		return domain.Draft{}, s.normalize(err)
	}
	draft, err := record.ToDraft()
	if err != nil {
		return domain.Draft{}, fmt.Errorf("%w: %v", domain.ErrRemoteFailure, err)
	}
	return draft, nil
}

// Upsert inserts when the id is unknown and fully replaces the row
// otherwise. Updates match on (id, user_id) so one user can never
// overwrite another's draft through a guessed id.
func (s *Store) Upsert(ctx context.Context, draft domain.Draft) (domain.Draft, error) {
	if !s.probe.Exists(ctx) {
		return domain.Draft{}, domain.ErrStoreUnavailable
	}

	now := s.clock.Now()
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}

	var existing codec.Record
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", draft.ID, draft.UserID).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if draft.CreatedAt.IsZero() {
			draft.CreatedAt = now
		}
		draft.UpdatedAt = now
		return draft, s.insert(ctx, draft)
	case err != nil:
		return domain.Draft{}, s.normalize(err)
	}

	draft.CreatedAt = existing.CreatedAt.UTC()
	draft.UpdatedAt = now
	if draft.UpdatedAt.Before(existing.UpdatedAt) {
		draft.UpdatedAt = existing.UpdatedAt.UTC()
	}
	return draft, s.replace(ctx, draft)
}

// Import writes a draft carrying its original id and timestamps
// verbatim. The migration operation uses it so identity and history
// survive the move between stores.
func (s *Store) Import(ctx context.Context, draft domain.Draft) error {
	if !s.probe.Exists(ctx) {
		return domain.ErrStoreUnavailable
	}

	var existing codec.Record
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", draft.ID, draft.UserID).
		First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.insert(ctx, draft)
	case err != nil:
		return s.normalize(err)
	}
	return s.replace(ctx, draft)
}

func (s *Store) Delete(ctx context.Context, userID, id string) (bool, error) {
	if !s.probe.Exists(ctx) {
		return false, domain.ErrStoreUnavailable
	}

	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&codec.Record{})
	if result.Error != nil {
		return false, s.normalize(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *Store) insert(ctx context.Context, draft domain.Draft) error {
	record, err := codec.FromDraft(draft)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteFailure, err)
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return s.normalize(err)
	}
	return nil
}

func (s *Store) replace(ctx context.Context, draft domain.Draft) error {
	record, err := codec.FromDraft(draft)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRemoteFailure, err)
	}
	err = s.db.WithContext(ctx).
		Model(&codec.Record{}).
		Where("id = ? AND user_id = ?", draft.ID, draft.UserID).
		Select("*").
		Updates(&record).Error
	if err != nil {
		return s.normalize(err)
	}
	return nil
}

func (s *Store) normalize(err error) error {
	if err == nil {
		return nil
	}
	// Cancellation and timeouts keep their identity so the caller can
	// show a timeout-specific message.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if pkgdb.IsUndefinedTable(err) {
		return domain.ErrStoreUnavailable
	}
	return fmt.Errorf("%w: %v", domain.ErrRemoteFailure, err)
}
