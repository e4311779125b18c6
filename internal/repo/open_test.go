package repo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/figure-timeline/internal/domain"
	"github.com/pkordes/figure-timeline/internal/repo"
)

func TestOpen_sqliteMigratesAndServes(t *testing.T) {
	ctx := context.Background()
	url := "sqlite://" + filepath.Join(t.TempDir(), "open.db")

	store, err := repo.Open(ctx, repo.BackendSQLite, url, true)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	item, err := store.Items.SaveWithTimeline(ctx, domain.SaveItemInput{
		Name:        "Zhu Wen",
		Description: "",
		AuthorID:    1,
		Entries:     []domain.EntryInput{{Start: "000852-12-09 00:00:00", What: "born"}},
	})
	require.NoError(t, err)

	entries, err := store.Items.ListTimeline(ctx, item.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpen_sqliteWithoutMigrateHasNoSchema(t *testing.T) {
	ctx := context.Background()
	url := "file:" + filepath.Join(t.TempDir(), "bare.db")

	store, err := repo.Open(ctx, repo.BackendSQLite, url, false)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	_, err = store.Items.List(ctx)
	assert.Error(t, err)
}

func TestOpen_postgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	store, err := repo.Open(context.Background(), repo.BackendPostgres, url, true)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	_, err = store.Items.List(context.Background())
	assert.NoError(t, err)
}

func TestOpen_unsupportedBackend(t *testing.T) {
	_, err := repo.Open(context.Background(), "mysql", "mysql://localhost", false)

	assert.ErrorContains(t, err, "unsupported backend")
}
