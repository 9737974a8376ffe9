package repository

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric-annotator/internal/annotator/models"
	"fabric-annotator/internal/editor"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "annotator.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := New(db)
	require.NoError(t, repo.Init(context.Background()))
	return repo
}

func TestRepository_Images(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	img, err := repo.CreateImage(ctx, models.Image{ID: "img-1", Name: "rack-a.jpg", Width: 640, Height: 480})
	require.NoError(t, err)
	assert.Equal(t, "rack-a.jpg", img.Name)
	assert.NotEmpty(t, img.CreatedAt)

	_, err = repo.GetImage(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.CreateImage(ctx, models.Image{ID: "img-2", Name: "rack-b.jpg", Width: 800, Height: 600})
	require.NoError(t, err)

	images, err := repo.ListImages(ctx)
	require.NoError(t, err)
	assert.Len(t, images, 2)
}

func TestRepository_InitIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.Init(context.Background()))
	assert.NoError(t, repo.Ping(context.Background()))
}

func TestRepository_SaveAndLoadBoxes(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.CreateImage(ctx, models.Image{ID: "img", Name: "stack.jpg", Width: 100, Height: 100})
	require.NoError(t, err)

	boxes := []editor.BoundingBox{
		{StartX: 50, StartY: 50, EndX: 10, EndY: 10, ID: "b", Label: "roll"},
		{StartX: 0, StartY: 0, EndX: 5, EndY: 5, ID: "a", Label: "roll"},
		{StartX: 60, StartY: 60, EndX: 90, EndY: 90, ID: "c", Label: "bolt"},
		{StartX: 1, StartY: 2, EndX: 30, EndY: 40, ID: "d"},
	}
	require.NoError(t, repo.SaveBoxes(ctx, "img", boxes))

	got, err := repo.LoadBoxes(ctx, "img")
	require.NoError(t, err)
	assert.Equal(t, boxes, got)

	counts, err := repo.CountBoxes(ctx, "img")
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Total)
	assert.Equal(t, []models.LabelCount{{Label: "", Count: 1}, {Label: "bolt", Count: 1}, {Label: "roll", Count: 2}}, counts.ByLabel)

	// saving again replaces the previous set
	require.NoError(t, repo.SaveBoxes(ctx, "img", boxes[:1]))
	got, err = repo.LoadBoxes(ctx, "img")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestRepository_SaveBoxesUnknownImage(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.SaveBoxes(context.Background(), "nope", []editor.BoundingBox{{ID: "a"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_EmptyImage(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	_, err := repo.CreateImage(ctx, models.Image{ID: "img", Name: "empty.jpg", Width: 10, Height: 10})
	require.NoError(t, err)

	boxes, err := repo.LoadBoxes(ctx, "img")
	require.NoError(t, err)
	assert.Empty(t, boxes)

	counts, err := repo.CountBoxes(ctx, "img")
	require.NoError(t, err)
	assert.Zero(t, counts.Total)
	assert.Empty(t, counts.ByLabel)
}
