package probe

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/folio/internal/draft/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newProbe(t *testing.T) (*Probe, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return New(Params{DB: db, Log: zap.NewNop()}), db
}

func TestExistsFalseWhenTableAbsent(t *testing.T) {
	p, _ := newProbe(t)
	assert.False(t, p.Exists(context.Background()))
}

func TestExistsTrueAfterProvisioning(t *testing.T) {
	p, db := newProbe(t)
	require.NoError(t, db.AutoMigrate(&codec.Record{}))
	assert.True(t, p.Exists(context.Background()))
}

func TestExistsFailClosedOnClosedConnection(t *testing.T) {
	p, db := newProbe(t)
	require.NoError(t, db.AutoMigrate(&codec.Record{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.False(t, p.Exists(context.Background()))
}
