package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Banner lifecycle: uploaded rows start as "processing" and the worker
// flips them to "ready" (or "failed") after finalizing the stored file.
const (
	BannerStatusProcessing = "processing"
	BannerStatusReady      = "ready"
	BannerStatusFailed     = "failed"
)

// ErrBannerNotProcessing signals a finalize job whose banner was already handled.
var ErrBannerNotProcessing = errors.New("banner is not in processing state")

type Banner struct {
	ID        string    `json:"_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title,omitempty"`
	LinkURL   string    `json:"linkUrl,omitempty"`
	Active    bool      `json:"active"`
	Status    string    `json:"status"`
	ByteSize  int64     `json:"byteSize,omitempty"`
	Checksum  string    `json:"checksum,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// BannerRepository defines persistence operations for banner images.
type BannerRepository interface {
	Create(ctx context.Context, url, title, linkURL string) (*Banner, error)
	Get(ctx context.Context, id string) (*Banner, error)
	List(ctx context.Context) ([]Banner, error)
	Update(ctx context.Context, id string, title, linkURL *string, active *bool) (*Banner, error)
	Delete(ctx context.Context, id string) error
	AcquireProcessing(ctx context.Context, id string) (*Banner, error)
	MarkReady(ctx context.Context, id string, byteSize int64, checksum string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	Count(ctx context.Context) (int64, error)
}

// PgBannerRepository implements BannerRepository using pgxpool.
type PgBannerRepository struct {
	db *pgxpool.Pool
}

func NewPgBannerRepository(db *pgxpool.Pool) *PgBannerRepository {
	return &PgBannerRepository{db: db}
}

func (r *PgBannerRepository) Create(ctx context.Context, url, title, linkURL string) (*Banner, error) {
	b := Banner{ID: uuid.NewString(), URL: url, Title: title, LinkURL: linkURL, Active: true, Status: BannerStatusProcessing}
	const q = `INSERT INTO banners (id, url, title, link_url, active, status)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`
	if err := r.db.QueryRow(ctx, q, b.ID, b.URL, b.Title, b.LinkURL, b.Active, b.Status).Scan(&b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PgBannerRepository) Get(ctx context.Context, id string) (*Banner, error) {
	const q = `SELECT id, url, title, link_url, active, status, byte_size, checksum, created_at
FROM banners WHERE id=$1`
	var b Banner
	if err := r.db.QueryRow(ctx, q, id).Scan(&b.ID, &b.URL, &b.Title, &b.LinkURL, &b.Active,
		&b.Status, &b.ByteSize, &b.Checksum, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns all banners newest first, matching the dashboard contract.
func (r *PgBannerRepository) List(ctx context.Context) ([]Banner, error) {
	rows, err := r.db.Query(ctx, `
SELECT id, url, title, link_url, active, status, byte_size, checksum, created_at
FROM banners
ORDER BY created_at DESC, id DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Banner
	for rows.Next() {
		var b Banner
		if err := rows.Scan(&b.ID, &b.URL, &b.Title, &b.LinkURL, &b.Active,
			&b.Status, &b.ByteSize, &b.Checksum, &b.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

// Update applies a partial update; nil fields keep their current value.
func (r *PgBannerRepository) Update(ctx context.Context, id string, title, linkURL *string, active *bool) (*Banner, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if title != nil {
		current.Title = *title
	}
	if linkURL != nil {
		current.LinkURL = *linkURL
	}
	if active != nil {
		current.Active = *active
	}
	const q = `UPDATE banners SET title=$1, link_url=$2, active=$3 WHERE id=$4`
	if _, err := r.db.Exec(ctx, q, current.Title, current.LinkURL, current.Active, id); err != nil {
		return nil, err
	}
	return current, nil
}

func (r *PgBannerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM banners WHERE id=$1`, id)
	return err
}

// AcquireProcessing claims a banner for finalization. Only rows still in
// "processing" are claimed, so a redelivered job is detected here.
func (r *PgBannerRepository) AcquireProcessing(ctx context.Context, id string) (*Banner, error) {
	const q = `SELECT id, url, title, link_url, active, status, byte_size, checksum, created_at
FROM banners WHERE id=$1 AND status=$2`
	var b Banner
	if err := r.db.QueryRow(ctx, q, id, BannerStatusProcessing).Scan(&b.ID, &b.URL, &b.Title, &b.LinkURL,
		&b.Active, &b.Status, &b.ByteSize, &b.Checksum, &b.CreatedAt); err != nil {
		return nil, ErrBannerNotProcessing
	}
	return &b, nil
}

func (r *PgBannerRepository) MarkReady(ctx context.Context, id string, byteSize int64, checksum string) error {
	const q = `UPDATE banners SET status=$1, byte_size=$2, checksum=$3 WHERE id=$4`
	_, err := r.db.Exec(ctx, q, BannerStatusReady, byteSize, checksum, id)
	return err
}

func (r *PgBannerRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	const q = `UPDATE banners SET status=$1, failure_reason=$2 WHERE id=$3`
	_, err := r.db.Exec(ctx, q, BannerStatusFailed, reason, id)
	return err
}

func (r *PgBannerRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM banners`).Scan(&n)
	return n, err
}
