package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// In-memory repositories backing router tests. They mimic the Postgres
// implementations' error contract: pgx.ErrNoRows for missing rows and a
// duplicate-key message for uniqueness violations.

var errDuplicateKey = errors.New(`duplicate key value violates unique constraint "users_email_key"`)

type memUserRepo struct {
	mu      sync.Mutex
	byEmail map[string]*UserRecord
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]*UserRecord)}
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) Create(_ context.Context, rec UserRecord) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[rec.Email]; ok {
		return nil, errDuplicateKey
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now()
	cp := rec
	r.byEmail[rec.Email] = &cp
	out := rec
	return &out, nil
}

func (r *memUserRepo) HasAdmin(_ context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.Role == "admin" {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) List(_ context.Context, page, perPage int) ([]AdminUserListItem, int, error) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, errors.New("invalid pagination")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]AdminUserListItem, 0, len(r.byEmail))
	for _, u := range r.byEmail {
		all = append(all, AdminUserListItem{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *memUserRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.byEmail)), nil
}

type memBannerRepo struct {
	mu    sync.Mutex
	items []Banner
}

func newMemBannerRepo() *memBannerRepo { return &memBannerRepo{} }

func (r *memBannerRepo) Create(_ context.Context, url, title, linkURL string) (*Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := Banner{ID: uuid.NewString(), URL: url, Title: title, LinkURL: linkURL, Active: true, Status: BannerStatusProcessing, CreatedAt: time.Now()}
	r.items = append(r.items, b)
	return &b, nil
}

func (r *memBannerRepo) Get(_ context.Context, id string) (*Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			cp := r.items[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memBannerRepo) List(_ context.Context) ([]Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Banner, len(r.items))
	copy(out, r.items)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memBannerRepo) Update(ctx context.Context, id string, title, linkURL *string, active *bool) (*Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			if title != nil {
				r.items[i].Title = *title
			}
			if linkURL != nil {
				r.items[i].LinkURL = *linkURL
			}
			if active != nil {
				r.items[i].Active = *active
			}
			cp := r.items[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memBannerRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memBannerRepo) AcquireProcessing(_ context.Context, id string) (*Banner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id && r.items[i].Status == BannerStatusProcessing {
			cp := r.items[i]
			return &cp, nil
		}
	}
	return nil, ErrBannerNotProcessing
}

func (r *memBannerRepo) MarkReady(_ context.Context, id string, byteSize int64, checksum string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Status = BannerStatusReady
			r.items[i].ByteSize = byteSize
			r.items[i].Checksum = checksum
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memBannerRepo) MarkFailed(_ context.Context, id string, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Status = BannerStatusFailed
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *memBannerRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

type memBlogRepo struct {
	mu   sync.Mutex
	blog *Blog
}

func newMemBlogRepo() *memBlogRepo { return &memBlogRepo{} }

func (r *memBlogRepo) Get(_ context.Context) (*Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blog == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *r.blog
	return &cp, nil
}

func (r *memBlogRepo) Create(_ context.Context, in BlogInput) (*Blog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	b := Blog{ID: uuid.NewString(), BlogTitle: in.BlogTitle, BlogPostContent: in.BlogPostContent, BlogImage: in.BlogImage, FAQ: in.FAQ, CreatedAt: now, UpdatedAt: now}
	if b.FAQ == nil {
		b.FAQ = []FAQItem{}
	}
	r.blog = &b
	cp := b
	return &cp, nil
}

func (r *memBlogRepo) Update(ctx context.Context, in BlogInput) (*Blog, error) {
	r.mu.Lock()
	if r.blog == nil {
		r.mu.Unlock()
		return r.Create(ctx, in)
	}
	if in.BlogImage == "" {
		in.BlogImage = r.blog.BlogImage
	}
	r.blog.BlogTitle = in.BlogTitle
	r.blog.BlogPostContent = in.BlogPostContent
	r.blog.BlogImage = in.BlogImage
	r.blog.FAQ = in.FAQ
	if r.blog.FAQ == nil {
		r.blog.FAQ = []FAQItem{}
	}
	r.blog.UpdatedAt = time.Now()
	cp := *r.blog
	r.mu.Unlock()
	return &cp, nil
}

func (r *memBlogRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.blog != nil && r.blog.ID == id {
		r.blog = nil
	}
	return nil
}

type memQuestionRepo struct {
	mu    sync.Mutex
	items []Question
}

func newMemQuestionRepo() *memQuestionRepo { return &memQuestionRepo{} }

func (r *memQuestionRepo) List(_ context.Context, page, perPage int) ([]Question, int, error) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, errors.New("invalid pagination")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	total := len(r.items)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}
	out := make([]Question, end-start)
	copy(out, r.items[start:end])
	return out, total, nil
}

func (r *memQuestionRepo) Get(_ context.Context, id string) (*Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			cp := r.items[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memQuestionRepo) Create(_ context.Context, in QuestionInput) (*Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := Question{
		ID:              uuid.NewString(),
		Text:            in.Text,
		Options:         in.Options,
		CorrectOptionID: in.CorrectOptionID,
		Category:        in.Category,
		Explanation:     in.Explanation,
		CreatedAt:       time.Now(),
	}
	r.items = append(r.items, q)
	cp := q
	return &cp, nil
}

func (r *memQuestionRepo) Update(_ context.Context, id string, in QuestionInput) (*Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Text = in.Text
			r.items[i].Options = in.Options
			r.items[i].CorrectOptionID = in.CorrectOptionID
			r.items[i].Category = in.Category
			r.items[i].Explanation = in.Explanation
			cp := r.items[i]
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memQuestionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *memQuestionRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.items)), nil
}

// memQueue records enqueued jobs for assertions.
type memQueue struct {
	mu   sync.Mutex
	jobs []string
}

func (q *memQueue) Enqueue(_ context.Context, _ string, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, value)
	return nil
}

func (q *memQueue) Reserve(_ context.Context, _, _ string, _ time.Duration) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		return "", errors.New("empty")
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, nil
}

func (q *memQueue) Ack(_ context.Context, _ string, _ string) error { return nil }

func (q *memQueue) RequeueExpired(_ context.Context, _, _ string, _ time.Time) ([]string, error) {
	return nil, nil
}

func (q *memQueue) enqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.jobs))
	copy(out, q.jobs)
	return out
}
