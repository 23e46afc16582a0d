package migration

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/draft/codec"
	"github.com/smallbiznis/folio/internal/draft/domain"
	"github.com/smallbiznis/folio/internal/draft/probe"
	"github.com/smallbiznis/folio/internal/draft/remotestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeLocal struct {
	drafts []domain.Draft
}

func (f *fakeLocal) List(context.Context, string) ([]domain.Draft, error) {
	return f.drafts, nil
}

type countingRemote struct {
	inner remoteStore
	gets  int
	puts  int
}

func (c *countingRemote) Get(ctx context.Context, userID, id string) (domain.Draft, error) {
	c.gets++
	return c.inner.Get(ctx, userID, id)
}

func (c *countingRemote) Import(ctx context.Context, draft domain.Draft) error {
	c.puts++
	return c.inner.Import(ctx, draft)
}

type staticProbe bool

func (p staticProbe) Exists(context.Context) bool { return bool(p) }

func localDrafts(n int) []domain.Draft {
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	drafts := make([]domain.Draft, 0, n)
	for i := 0; i < n; i++ {
		drafts = append(drafts, domain.Draft{
			ID:        "draft-" + string(rune('a'+i)),
			UserID:    "u1",
			Type:      domain.DraftTypeInvoice,
			Notes:     "local",
			CreatedAt: created,
			UpdatedAt: created.Add(time.Duration(i) * time.Minute),
		})
	}
	return drafts
}

func newRemote(t *testing.T) (*remotestore.Store, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&codec.Record{}, &Run{}))

	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	store := remotestore.New(remotestore.Params{
		DB:    db,
		Probe: probe.New(probe.Params{DB: db, Log: zap.NewNop()}),
		Log:   zap.NewNop(),
		Clock: clk,
	})
	return store, db
}

func newTestMigrator(t *testing.T, local localStore, remote remoteStore, tp tableProbe, db *gorm.DB) *Migrator {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	return newMigrator(local, remote, tp, db, node, zap.NewNop(), clk)
}

func TestUnavailableRemoteReportsWithoutWrites(t *testing.T) {
	remote := &countingRemote{}
	m := newTestMigrator(t, &fakeLocal{drafts: localDrafts(3)}, remote, staticProbe(false), nil)

	report, err := m.Migrate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusUnavailable, report.Status)
	assert.Zero(t, report.Migrated)
	assert.Zero(t, report.Failed)
	assert.Zero(t, remote.puts)
	assert.Zero(t, remote.gets)
}

func TestEmptyLocalStoreIsNoopSuccess(t *testing.T) {
	remote := &countingRemote{}
	m := newTestMigrator(t, &fakeLocal{}, remote, staticProbe(true), nil)

	report, err := m.Migrate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusNoop, report.Status)
	assert.Zero(t, report.Migrated)
	assert.Zero(t, report.Failed)
	assert.Zero(t, remote.puts)
	assert.Zero(t, remote.gets)
}

func TestCompleteMigration(t *testing.T) {
	store, db := newRemote(t)
	drafts := localDrafts(3)
	m := newTestMigrator(t, &fakeLocal{drafts: drafts}, store, staticProbe(true), db)

	report, err := m.Migrate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, report.Status)
	assert.Equal(t, 3, report.Migrated)
	assert.Zero(t, report.Failed)
	assert.NotZero(t, report.RunID)

	remote, err := store.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, remote, 3)

	byID := map[string]domain.Draft{}
	for _, d := range remote {
		byID[d.ID] = d
	}
	for _, want := range drafts {
		got, ok := byID[want.ID]
		require.True(t, ok, "missing %s", want.ID)
		assert.Equal(t, want.CreatedAt, got.CreatedAt)
		assert.Equal(t, want.UpdatedAt, got.UpdatedAt)
		assert.Equal(t, want.Notes, got.Notes)
	}

	var runs int64
	require.NoError(t, db.Model(&Run{}).Count(&runs).Error)
	assert.EqualValues(t, 1, runs)
}

func TestSingleFailureDoesNotAbortBatch(t *testing.T) {
	store, db := newRemote(t)
	drafts := localDrafts(3)
	drafts[1].Type = "receipt" // violates the doc_type constraint

	m := newTestMigrator(t, &fakeLocal{drafts: drafts}, store, staticProbe(true), db)

	report, err := m.Migrate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, report.Status)
	assert.Equal(t, 2, report.Migrated)
	assert.Equal(t, 1, report.Failed)

	remote, err := store.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, remote, 2)
}

func TestAllFailuresReportFailed(t *testing.T) {
	store, db := newRemote(t)
	drafts := localDrafts(2)
	drafts[0].Type = "receipt"
	drafts[1].Type = "receipt"

	m := newTestMigrator(t, &fakeLocal{drafts: drafts}, store, staticProbe(true), db)

	report, err := m.Migrate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, report.Status)
	assert.Zero(t, report.Migrated)
	assert.Equal(t, 2, report.Failed)
}

func TestRerunIsIdempotentInEffect(t *testing.T) {
	store, db := newRemote(t)
	drafts := localDrafts(2)
	m := newTestMigrator(t, &fakeLocal{drafts: drafts}, store, staticProbe(true), db)

	_, err := m.Migrate(context.Background(), "u1")
	require.NoError(t, err)
	report, err := m.Migrate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, report.Status)

	remote, err := store.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, remote, 2)
}

func TestNewerRemoteCopyIsSkipped(t *testing.T) {
	store, db := newRemote(t)
	drafts := localDrafts(1)

	newer := drafts[0]
	newer.Notes = "edited on another device"
	newer.UpdatedAt = drafts[0].UpdatedAt.Add(time.Hour)
	require.NoError(t, store.Import(context.Background(), newer))

	m := newTestMigrator(t, &fakeLocal{drafts: drafts}, store, staticProbe(true), db)
	report, err := m.Migrate(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, report.Status)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Migrated)

	got, err := store.Get(context.Background(), "u1", drafts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "edited on another device", got.Notes)
}
