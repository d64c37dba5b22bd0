package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"safespace-chat/internal/crisis"
	"safespace-chat/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// dryRunRepo builds a repository whose statements are rendered but never
// sent. The last rendered statement is returned by the accessor.
func dryRunRepo(t *testing.T) (*CrisisRepository, func() *gorm.Statement) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 port=1 user=test dbname=test sslmode=disable"}), &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)

	var last *gorm.Statement
	capture := func(tx *gorm.DB) { last = tx.Statement }
	require.NoError(t, db.Callback().Create().After("gorm:create").Register("test:capture_create", capture))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))

	repo := NewCrisisRepository(db.Session(&gorm.Session{DryRun: true}))
	return repo, func() *gorm.Statement {
		require.NotNil(t, last, "no statement was rendered")
		return last
	}
}

func TestCrisisRepository_Create(t *testing.T) {
	repo, last := dryRunRepo(t)

	err := repo.AlertSink().Publish(context.Background(), crisis.Alert{
		Room:      "general",
		Content:   "I want to end it all",
		SenderID:  "anon_a",
		MessageID: "m1",
		Keyword:   true,
		Timestamp: time.Now(),
	})
	require.NoError(t, err)

	stmt := last()
	sql := stmt.SQL.String()
	assert.Contains(t, sql, `INSERT INTO "crisis_incidents"`)
	assert.Contains(t, sql, `"preview"`)
	assert.Contains(t, stmt.Vars, "general")
	assert.Contains(t, stmt.Vars, "I want to end it all")
}

func TestCrisisRepository_ListRecent(t *testing.T) {
	repo, last := dryRunRepo(t)

	_, err := repo.ListRecent(context.Background(), 5)
	require.NoError(t, err)

	sql := last().SQL.String()
	assert.Contains(t, sql, `FROM "crisis_incidents"`)
	assert.Contains(t, sql, `ORDER BY detected_at DESC`)
	assert.Contains(t, sql, `LIMIT`)
}

func TestCrisisRepository_CountByRoom(t *testing.T) {
	repo, last := dryRunRepo(t)

	_, err := repo.CountByRoom(context.Background(), "family")
	require.NoError(t, err)

	stmt := last()
	assert.Contains(t, stmt.SQL.String(), `count(*)`)
	assert.Contains(t, stmt.SQL.String(), `room = $1`)
	assert.Contains(t, stmt.Vars, "family")
}

// Runs against a real database when TEST_DATABASE_DSN is set.
func TestCrisisRepository_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping integration test")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.CrisisIncident{}))

	repo := NewCrisisRepository(db)
	ctx := context.Background()
	room := "test-" + uuid.New().String()
	t.Cleanup(func() { db.Where("room = ?", room).Delete(&models.CrisisIncident{}) })

	sink := repo.AlertSink()
	require.NoError(t, sink.Publish(ctx, crisis.Alert{Room: room, Content: "help", MessageID: "m1", Timestamp: time.Now()}))
	require.NoError(t, sink.Publish(ctx, crisis.Alert{Room: room, Content: "help again", MessageID: "m2", Timestamp: time.Now().Add(time.Second)}))

	count, err := repo.CountByRoom(ctx, room)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	recent, err := repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}
