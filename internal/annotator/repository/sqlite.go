package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"fabric-annotator/internal/annotator/models"
	"fabric-annotator/internal/editor"
)

// ============================================================
// SQLite Repository
// ============================================================

// ErrNotFound is returned when an image does not exist.
var ErrNotFound = errors.New("not found")

//go:embed migrations/*.sql
var migrations embed.FS

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init applies the embedded migrations in file name order.
func (r *Repository) Init(ctx context.Context) error {
	if err := r.runMigrations(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Ping reports whether the database answers.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) CreateImage(ctx context.Context, img models.Image) (*models.Image, error) {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO images (id, name, width, height)
        VALUES (?, ?, ?, ?)
    `, img.ID, img.Name, img.Width, img.Height)
	if err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}
	return r.GetImage(ctx, img.ID)
}

func (r *Repository) GetImage(ctx context.Context, id string) (*models.Image, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, width, height, created_at
        FROM images
        WHERE id = ?
    `, id)

	var img models.Image
	if err := row.Scan(&img.ID, &img.Name, &img.Width, &img.Height, &img.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("image %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &img, nil
}

func (r *Repository) ListImages(ctx context.Context) ([]models.Image, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, width, height, created_at
        FROM images
        ORDER BY created_at, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	images := []models.Image{}
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(&img.ID, &img.Name, &img.Width, &img.Height, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// ============================================================
// Boxes
// ============================================================

// SaveBoxes replaces the stored boxes of an image, keeping their order.
func (r *Repository) SaveBoxes(ctx context.Context, imageID string, boxes []editor.BoundingBox) error {
	if _, err := r.GetImage(ctx, imageID); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM boxes WHERE image_id = ?`, imageID); err != nil {
		return fmt.Errorf("delete boxes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO boxes (image_id, position, box_id, label, start_x, start_y, end_x, end_y)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range boxes {
		if _, err := stmt.ExecContext(ctx, imageID, i, b.ID, b.Label, b.StartX, b.StartY, b.EndX, b.EndY); err != nil {
			return fmt.Errorf("insert box %s: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

func (r *Repository) LoadBoxes(ctx context.Context, imageID string) ([]editor.BoundingBox, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT box_id, label, start_x, start_y, end_x, end_y
        FROM boxes
        WHERE image_id = ?
        ORDER BY position
    `, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boxes := []editor.BoundingBox{}
	for rows.Next() {
		var b editor.BoundingBox
		if err := rows.Scan(&b.ID, &b.Label, &b.StartX, &b.StartY, &b.EndX, &b.EndY); err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}
	return boxes, rows.Err()
}

// CountBoxes returns the total and per-label box counts of an image.
// Unlabelled boxes are counted under the empty label.
func (r *Repository) CountBoxes(ctx context.Context, imageID string) (models.Counts, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT label, COUNT(*)
        FROM boxes
        WHERE image_id = ?
        GROUP BY label
    `, imageID)
	if err != nil {
		return models.Counts{}, err
	}
	defer rows.Close()

	counts := models.Counts{ByLabel: []models.LabelCount{}}
	for rows.Next() {
		var lc models.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return models.Counts{}, err
		}
		counts.Total += lc.Count
		counts.ByLabel = append(counts.ByLabel, lc)
	}
	sort.Slice(counts.ByLabel, func(i, j int) bool {
		return counts.ByLabel[i].Label < counts.ByLabel[j].Label
	})
	return counts, rows.Err()
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// OpenSQLite opens the sqlite database at dbPath, creating its directory.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
