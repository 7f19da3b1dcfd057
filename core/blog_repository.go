package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxBlogFAQs caps the FAQ sub-list attached to the blog document.
const MaxBlogFAQs = 5

// FAQItem is one question/answer pair on the blog document.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Blog is the single marketing blog document the dashboard edits.
type Blog struct {
	ID              string    `json:"_id"`
	BlogTitle       string    `json:"blogTitle"`
	BlogPostContent string    `json:"blogPostContent"`
	BlogImage       string    `json:"blogimage,omitempty"`
	FAQ             []FAQItem `json:"faq"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// BlogInput carries the editable fields of the blog document.
type BlogInput struct {
	BlogTitle       string
	BlogPostContent string
	BlogImage       string
	FAQ             []FAQItem
}

// Validate enforces the document constraints shared by create and update.
func (in *BlogInput) Validate() error {
	in.BlogTitle = strings.TrimSpace(in.BlogTitle)
	in.BlogPostContent = strings.TrimSpace(in.BlogPostContent)
	if in.BlogTitle == "" || in.BlogPostContent == "" {
		return errors.New("both blogTitle and blogPostContent are required")
	}
	if len(in.FAQ) > MaxBlogFAQs {
		return errors.New("maximum 5 FAQs allowed")
	}
	for _, f := range in.FAQ {
		if strings.TrimSpace(f.Question) == "" || strings.TrimSpace(f.Answer) == "" {
			return errors.New("each FAQ needs both question and answer")
		}
	}
	return nil
}

// BlogRepository persists the blog document. The store may hold multiple
// rows historically; Get always returns the newest one.
type BlogRepository interface {
	Get(ctx context.Context) (*Blog, error)
	Create(ctx context.Context, in BlogInput) (*Blog, error)
	Update(ctx context.Context, in BlogInput) (*Blog, error)
	Delete(ctx context.Context, id string) error
}

// PgBlogRepository implements BlogRepository using pgxpool. The FAQ
// sub-list is stored as a JSONB column.
type PgBlogRepository struct {
	db *pgxpool.Pool
}

func NewPgBlogRepository(db *pgxpool.Pool) *PgBlogRepository {
	return &PgBlogRepository{db: db}
}

func (r *PgBlogRepository) Get(ctx context.Context) (*Blog, error) {
	const q = `SELECT id, blog_title, blog_post_content, blog_image, faq, created_at, updated_at
FROM blogs ORDER BY updated_at DESC, id DESC LIMIT 1`
	var b Blog
	var faqRaw []byte
	if err := r.db.QueryRow(ctx, q).Scan(&b.ID, &b.BlogTitle, &b.BlogPostContent, &b.BlogImage,
		&faqRaw, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(faqRaw, &b.FAQ); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PgBlogRepository) Create(ctx context.Context, in BlogInput) (*Blog, error) {
	faqRaw, err := marshalFAQ(in.FAQ)
	if err != nil {
		return nil, err
	}
	b := Blog{
		ID:              uuid.NewString(),
		BlogTitle:       in.BlogTitle,
		BlogPostContent: in.BlogPostContent,
		BlogImage:       in.BlogImage,
		FAQ:             in.FAQ,
	}
	const q = `INSERT INTO blogs (id, blog_title, blog_post_content, blog_image, faq)
VALUES ($1,$2,$3,$4,$5) RETURNING created_at, updated_at`
	if err := r.db.QueryRow(ctx, q, b.ID, b.BlogTitle, b.BlogPostContent, b.BlogImage, faqRaw).
		Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// Update rewrites the current document in place; when none exists it
// behaves like Create so the dashboard's PUT is always safe.
func (r *PgBlogRepository) Update(ctx context.Context, in BlogInput) (*Blog, error) {
	current, err := r.Get(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.Create(ctx, in)
		}
		return nil, err
	}
	if in.BlogImage == "" {
		in.BlogImage = current.BlogImage
	}
	faqRaw, err := marshalFAQ(in.FAQ)
	if err != nil {
		return nil, err
	}
	const q = `UPDATE blogs SET blog_title=$1, blog_post_content=$2, blog_image=$3, faq=$4, updated_at=now()
WHERE id=$5 RETURNING created_at, updated_at`
	b := Blog{ID: current.ID, BlogTitle: in.BlogTitle, BlogPostContent: in.BlogPostContent, BlogImage: in.BlogImage, FAQ: in.FAQ}
	if err := r.db.QueryRow(ctx, q, b.BlogTitle, b.BlogPostContent, b.BlogImage, faqRaw, b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PgBlogRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM blogs WHERE id=$1`, id)
	return err
}

func marshalFAQ(faq []FAQItem) ([]byte, error) {
	if faq == nil {
		faq = []FAQItem{}
	}
	return json.Marshal(faq)
}
