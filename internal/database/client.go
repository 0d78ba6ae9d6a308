package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"beiboot-backend/internal/models"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("record not found")

type Client struct {
	db *sql.DB
}

func NewClient(ctx context.Context, connectionString string) (*Client, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

func (d *Client) DB() *sql.DB {
	return d.db
}

func (d *Client) Close() error {
	return d.db.Close()
}

func (d *Client) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Client) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := d.db.QueryRowContext(ctx, `
		SELECT id, username FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.Username)
	if err != nil {
		return nil, notFound(err, "failed to get user")
	}
	return &user, nil
}

// EnsureUser inserts the user unless a row with that id already exists.
func (d *Client) EnsureUser(ctx context.Context, userID, username string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, username) VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, userID, username)
	if err != nil {
		return fmt.Errorf("failed to ensure user: %w", err)
	}
	return nil
}

func (d *Client) CreateProject(ctx context.Context, ownerID, name string, public bool) (*models.Project, error) {
	var project models.Project
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO projects (name, user_id, public)
		VALUES ($1, $2, $3)
		RETURNING id, name, user_id, public, created_at
	`, name, ownerID, public).Scan(
		&project.ID, &project.Name, &project.OwnerID, &project.Public, &project.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &project, nil
}

func (d *Client) GetProject(ctx context.Context, projectID int64) (*models.Project, error) {
	var project models.Project
	err := d.db.QueryRowContext(ctx, `
		SELECT id, name, user_id, public, created_at
		FROM projects
		WHERE id = $1
	`, projectID).Scan(
		&project.ID, &project.Name, &project.OwnerID, &project.Public, &project.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "failed to get project")
	}
	return &project, nil
}

func (d *Client) ListProjectsByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	return d.listProjects(ctx, `
		SELECT id, name, user_id, public, created_at
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
}

func (d *Client) ListPublicProjects(ctx context.Context) ([]models.Project, error) {
	return d.listProjects(ctx, `
		SELECT id, name, user_id, public, created_at
		FROM projects
		WHERE public
		ORDER BY created_at DESC, id DESC
	`)
}

func (d *Client) listProjects(ctx context.Context, query string, args ...interface{}) ([]models.Project, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]models.Project, 0)
	for rows.Next() {
		var project models.Project
		if err := rows.Scan(
			&project.ID, &project.Name, &project.OwnerID, &project.Public, &project.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

func (d *Client) UpdateProject(ctx context.Context, projectID int64, name string, public bool) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE projects
		SET name = $1, public = $2
		WHERE id = $3
	`, name, public, projectID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return expectRow(res)
}

func (d *Client) CreateImage(ctx context.Context, img *models.Image) error {
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO images (storage_key, filename, project_id, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, img.StorageKey, img.Filename, img.ProjectID, img.OwnerID).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	return nil
}

func (d *Client) GetImage(ctx context.Context, imageID int64) (*models.Image, error) {
	var img models.Image
	err := d.db.QueryRowContext(ctx, `
		SELECT id, storage_key, filename, project_id, user_id, created_at
		FROM images
		WHERE id = $1
	`, imageID).Scan(
		&img.ID, &img.StorageKey, &img.Filename, &img.ProjectID, &img.OwnerID, &img.CreatedAt,
	)
	if err != nil {
		return nil, notFound(err, "failed to get image")
	}
	return &img, nil
}

func (d *Client) ListImages(ctx context.Context, projectID int64) ([]models.Image, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, storage_key, filename, project_id, user_id, created_at
		FROM images
		WHERE project_id = $1
		ORDER BY created_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	defer rows.Close()

	images := make([]models.Image, 0)
	for rows.Next() {
		var img models.Image
		if err := rows.Scan(
			&img.ID, &img.StorageKey, &img.Filename, &img.ProjectID, &img.OwnerID, &img.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}

	return images, nil
}

func (d *Client) RenameImage(ctx context.Context, imageID int64, filename string) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE images SET filename = $1 WHERE id = $2
	`, filename, imageID)
	if err != nil {
		return fmt.Errorf("failed to rename image: %w", err)
	}
	return expectRow(res)
}

func (d *Client) DeleteImage(ctx context.Context, imageID int64) error {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM images WHERE id = $1
	`, imageID)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return expectRow(res)
}

func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
