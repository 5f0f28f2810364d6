package notes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const noteCols = `id, visit_id, author_id, author_name, specialty, note_type, content, created_at, updated_at`

func (r *repoPG) scanNote(row pgx.Row) (*Note, error) {
	var n Note
	err := row.Scan(&n.ID, &n.VisitID, &n.AuthorID, &n.AuthorName, &n.Specialty, &n.NoteType,
		&n.Content, &n.CreatedAt, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &n, err
}

func (r *repoPG) Create(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clinical_notes (id, visit_id, author_id, author_name, specialty, note_type, content)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID, n.VisitID, n.AuthorID, n.AuthorName, n.Specialty, n.NoteType, n.Content)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Note, error) {
	return r.scanNote(r.pool.QueryRow(ctx, `SELECT `+noteCols+` FROM clinical_notes WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, n *Note) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE clinical_notes SET content=$2, note_type=$3, updated_at=NOW() WHERE id = $1`,
		n.ID, n.Content, n.NoteType)
	return err
}

func (r *repoPG) ListByVisit(ctx context.Context, visitID uuid.UUID) ([]*Note, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+noteCols+` FROM clinical_notes WHERE visit_id = $1 ORDER BY created_at`, visitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Note
	for rows.Next() {
		n, err := r.scanNote(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}
