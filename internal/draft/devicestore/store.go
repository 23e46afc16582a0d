// Package devicestore keeps drafts on the current device only. Each
// user's collection is one keyed blob holding a JSON array; every
// mutation rewrites the whole collection. Storage failures never reach
// callers: operations degrade to no-ops with a logged warning.
package devicestore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/draft/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type draftBlob struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Payload   string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (draftBlob) TableName() string { return "draft_blobs" }

// blobs is the minimal keyed storage the store runs on, split out so
// tests can simulate an unavailable or full device store.
type blobs interface {
	read(ctx context.Context, key string) (string, bool, error)
	write(ctx context.Context, key, payload string) error
}

type sqliteBlobs struct {
	db *gorm.DB
}

func (s *sqliteBlobs) read(ctx context.Context, key string) (string, bool, error) {
	var blob draftBlob
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&blob).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return blob.Payload, true, nil
}

func (s *sqliteBlobs) write(ctx context.Context, key, payload string) error {
	blob := draftBlob{Key: key, Payload: payload, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Save(&blob).Error
}

// unavailableBlobs stands in when the device database could not be
// opened at all, keeping the whole store in degraded mode.
type unavailableBlobs struct {
	err error
}

func (u *unavailableBlobs) read(context.Context, string) (string, bool, error) {
	return "", false, u.err
}

func (u *unavailableBlobs) write(context.Context, string, string) error { return u.err }

// Store implements domain.Store on device-local storage.
type Store struct {
	blobs  blobs
	prefix string
	log    *zap.Logger
	clock  clock.Clock
}

type Params struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Clock clock.Clock
}

// New opens the device database. Open or migrate failures do not fail
// construction: the store comes up degraded instead so the app keeps
// working without local persistence.
func New(p Params) *Store {
	store := &Store{
		prefix: p.Cfg.DeviceStorePrefix,
		log:    p.Log.Named("draft.devicestore"),
		clock:  p.Clock,
	}

	db, err := gorm.Open(sqlite.Open(p.Cfg.DeviceStorePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		store.log.Warn("device store unavailable, operating degraded", zap.Error(err))
		store.blobs = &unavailableBlobs{err: err}
		return store
	}
	if err := db.AutoMigrate(&draftBlob{}); err != nil {
		store.log.Warn("device store migration failed, operating degraded", zap.Error(err))
		store.blobs = &unavailableBlobs{err: err}
		return store
	}

	store.blobs = &sqliteBlobs{db: db}
	return store
}

func newWithBlobs(b blobs, prefix string, log *zap.Logger, clk clock.Clock) *Store {
	return &Store{blobs: b, prefix: prefix, log: log, clock: clk}
}

func (s *Store) key(userID string) string {
	return s.prefix + userID
}

// List returns all drafts for the user. Storage failures are logged and
// reported as an empty result, never as an error.
func (s *Store) List(ctx context.Context, userID string) ([]domain.Draft, error) {
	return s.load(ctx, userID), nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (domain.Draft, error) {
	for _, d := range s.load(ctx, userID) {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Draft{}, domain.ErrNotFound
}

// Upsert replaces the matching record or appends a new one. An unmatched
// id is inserted anyway; the device store stays resilient rather than
// strict. A storage failure returns the stamped draft without persisting.
func (s *Store) Upsert(ctx context.Context, draft domain.Draft) (domain.Draft, error) {
	drafts := s.load(ctx, draft.UserID)
	now := s.clock.Now()

	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now

	replaced := false
	for i, existing := range drafts {
		if existing.ID == draft.ID {
			if draft.UpdatedAt.Before(existing.UpdatedAt) {
				draft.UpdatedAt = existing.UpdatedAt
			}
			drafts[i] = draft
			replaced = true
			break
		}
	}
	if !replaced {
		drafts = append(drafts, draft)
	}

	s.persist(ctx, draft.UserID, drafts)
	return draft, nil
}

func (s *Store) Delete(ctx context.Context, userID, id string) (bool, error) {
	drafts := s.load(ctx, userID)

	kept := drafts[:0]
	removed := false
	for _, d := range drafts {
		if d.ID == id {
			removed = true
			continue
		}
		kept = append(kept, d)
	}
	if !removed {
		return false, nil
	}

	return s.persist(ctx, userID, kept), nil
}

func (s *Store) load(ctx context.Context, userID string) []domain.Draft {
	payload, found, err := s.blobs.read(ctx, s.key(userID))
	if err != nil {
		s.log.Warn("device store read failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	if !found {
		return nil
	}

	var drafts []domain.Draft
	if err := json.Unmarshal([]byte(payload), &drafts); err != nil {
		s.log.Warn("device store payload corrupt",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	return drafts
}

func (s *Store) persist(ctx context.Context, userID string, drafts []domain.Draft) bool {
	if drafts == nil {
		drafts = []domain.Draft{}
	}
	payload, err := json.Marshal(drafts)
	if err != nil {
		s.log.Warn("device store encode failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return false
	}
	if err := s.blobs.write(ctx, s.key(userID), string(payload)); err != nil {
		s.log.Warn("device store write failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return false
	}
	return true
}
