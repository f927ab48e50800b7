package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kisah-comments/internal/domain"
)

type SubjectRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error)
}

type subjectRepository struct {
	db *sqlx.DB
}

func NewSubjectRepository(db *sqlx.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subject, error) {
	var subject domain.Subject
	query := `SELECT id, author_id, title, created_at FROM subjects WHERE id = $1`

	err := r.db.GetContext(ctx, &subject, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &subject, nil
}
