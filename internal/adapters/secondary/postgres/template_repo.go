package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"template-repo-service/internal/core/domain"
	"template-repo-service/internal/core/ports/output"
)

type templateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepository(pool *pgxpool.Pool) ports.TemplateRepository {
	return &templateRepo{pool: pool}
}

func (r *templateRepo) Insert(ctx context.Context, tpl *domain.Template) error {
	query := `
		INSERT INTO template_storage
			(id, category, title, description, owner, filename, original_name,
			 created_by, created_at, path)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	_, err := r.pool.Exec(ctx, query,
		tpl.ID, tpl.Category, tpl.Title, tpl.Description, tpl.Owner,
		tpl.Filename, tpl.OriginalName, tpl.CreatedBy, tpl.CreatedAt, tpl.Path,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrTemplateExists
		}
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (r *templateRepo) ListAll(ctx context.Context) ([]*domain.Template, error) {
	query := `
		SELECT id, category, title, description, owner, filename, original_name,
			   created_by, created_at, path
		FROM template_storage
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*domain.Template
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template row: %w", err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template rows: %w", err)
	}

	return templates, nil
}

func (r *templateRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	query := `
		SELECT id, category, title, description, owner, filename, original_name,
			   created_by, created_at, path
		FROM template_storage
		WHERE id = $1
	`
	tpl, err := scanTemplate(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get template by id: %w", err)
	}
	return tpl, nil
}

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var tpl domain.Template
	err := row.Scan(
		&tpl.ID, &tpl.Category, &tpl.Title, &tpl.Description, &tpl.Owner,
		&tpl.Filename, &tpl.OriginalName, &tpl.CreatedBy, &tpl.CreatedAt, &tpl.Path,
	)
	if err != nil {
		return nil, err
	}
	return &tpl, nil
}
