package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionOption is one answer choice.
type QuestionOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// QuestionExplanation optionally accompanies a question.
type QuestionExplanation struct {
	VideoURL string `json:"videoUrl,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Question is a quiz item managed from the admin dashboard.
type Question struct {
	ID              string               `json:"id"`
	Text            string               `json:"text"`
	Options         []QuestionOption     `json:"options"`
	CorrectOptionID string               `json:"correctOptionId"`
	Category        string               `json:"category"`
	Explanation     *QuestionExplanation `json:"explanation,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// QuestionInput carries the editable fields of a question.
type QuestionInput struct {
	Text            string               `json:"text"`
	Options         []QuestionOption     `json:"options"`
	CorrectOptionID string               `json:"correctOptionId"`
	Category        string               `json:"category"`
	Explanation     *QuestionExplanation `json:"explanation,omitempty"`
}

// Validate enforces question constraints: at least two options and a
// correct-option reference that resolves to one of them.
func (in *QuestionInput) Validate() error {
	in.Text = strings.TrimSpace(in.Text)
	in.Category = strings.TrimSpace(in.Category)
	if in.Text == "" {
		return errors.New("text is required")
	}
	if in.Category == "" {
		return errors.New("category is required")
	}
	if len(in.Options) < 2 {
		return errors.New("at least two options are required")
	}
	found := false
	for i := range in.Options {
		if in.Options[i].ID == "" {
			in.Options[i].ID = uuid.NewString()
		}
		if strings.TrimSpace(in.Options[i].Text) == "" {
			return errors.New("option text is required")
		}
		if in.Options[i].ID == in.CorrectOptionID {
			found = true
		}
	}
	if !found {
		return errors.New("correctOptionId must reference one of the options")
	}
	return nil
}

// QuestionRepository defines persistence operations for questions.
type QuestionRepository interface {
	List(ctx context.Context, page, perPage int) ([]Question, int, error)
	Get(ctx context.Context, id string) (*Question, error)
	Create(ctx context.Context, in QuestionInput) (*Question, error)
	Update(ctx context.Context, id string, in QuestionInput) (*Question, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// PgQuestionRepository implements QuestionRepository using pgxpool.
// Options and explanation are JSONB columns.
type PgQuestionRepository struct {
	db *pgxpool.Pool
}

func NewPgQuestionRepository(db *pgxpool.Pool) *PgQuestionRepository {
	return &PgQuestionRepository{db: db}
}

func (r *PgQuestionRepository) List(ctx context.Context, page, perPage int) ([]Question, int, error) {
	if page <= 0 || perPage <= 0 {
		return nil, 0, errors.New("invalid pagination")
	}
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
SELECT id, text, options, correct_option_id, category, explanation, created_at
FROM questions
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2
`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]Question, 0, perPage)
	for rows.Next() {
		q, err := scanQuestion(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *q)
	}
	return items, total, rows.Err()
}

func (r *PgQuestionRepository) Get(ctx context.Context, id string) (*Question, error) {
	row := r.db.QueryRow(ctx, `
SELECT id, text, options, correct_option_id, category, explanation, created_at
FROM questions WHERE id=$1
`, id)
	return scanQuestion(row.Scan)
}

func (r *PgQuestionRepository) Create(ctx context.Context, in QuestionInput) (*Question, error) {
	optRaw, expRaw, err := marshalQuestionJSON(in)
	if err != nil {
		return nil, err
	}
	q := Question{
		ID:              uuid.NewString(),
		Text:            in.Text,
		Options:         in.Options,
		CorrectOptionID: in.CorrectOptionID,
		Category:        in.Category,
		Explanation:     in.Explanation,
	}
	const stmt = `INSERT INTO questions (id, text, options, correct_option_id, category, explanation)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`
	if err := r.db.QueryRow(ctx, stmt, q.ID, q.Text, optRaw, q.CorrectOptionID, q.Category, expRaw).
		Scan(&q.CreatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *PgQuestionRepository) Update(ctx context.Context, id string, in QuestionInput) (*Question, error) {
	optRaw, expRaw, err := marshalQuestionJSON(in)
	if err != nil {
		return nil, err
	}
	q := Question{
		ID:              id,
		Text:            in.Text,
		Options:         in.Options,
		CorrectOptionID: in.CorrectOptionID,
		Category:        in.Category,
		Explanation:     in.Explanation,
	}
	const stmt = `UPDATE questions SET text=$1, options=$2, correct_option_id=$3, category=$4, explanation=$5
WHERE id=$6 RETURNING created_at`
	if err := r.db.QueryRow(ctx, stmt, q.Text, optRaw, q.CorrectOptionID, q.Category, expRaw, id).
		Scan(&q.CreatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *PgQuestionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	return err
}

func (r *PgQuestionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

func scanQuestion(scan func(dest ...any) error) (*Question, error) {
	var q Question
	var optRaw, expRaw []byte
	if err := scan(&q.ID, &q.Text, &optRaw, &q.CorrectOptionID, &q.Category, &expRaw, &q.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(optRaw, &q.Options); err != nil {
		return nil, err
	}
	if len(expRaw) > 0 && string(expRaw) != "null" {
		var exp QuestionExplanation
		if err := json.Unmarshal(expRaw, &exp); err != nil {
			return nil, err
		}
		q.Explanation = &exp
	}
	return &q, nil
}

func marshalQuestionJSON(in QuestionInput) (optRaw, expRaw []byte, err error) {
	optRaw, err = json.Marshal(in.Options)
	if err != nil {
		return nil, nil, err
	}
	expRaw, err = json.Marshal(in.Explanation)
	if err != nil {
		return nil, nil, err
	}
	return optRaw, expRaw, nil
}
