package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"Reelrank/models"
)

const moviesTable = "movies"

var movieColumns = []string{
	"id", "title", "year", "description", "rating", "ranking", "review", "img_url", "created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DB is the slice of the pgx pool API the store needs. *pgxpool.Pool and
// pgxmock pools both satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// MovieStore persists watchlist entries in the movies table.
type MovieStore struct {
	db DB
}

func NewMovieStore(db DB) *MovieStore {
	return &MovieStore{db: db}
}

func (s *MovieStore) ListAll(ctx context.Context) ([]models.Movie, error) {
	query, args, err := psql.Select(movieColumns...).From(moviesTable).OrderBy("id ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}

	return movies, nil
}

func (s *MovieStore) Get(ctx context.Context, id int) (*models.Movie, error) {
	query, args, err := psql.Select(movieColumns...).From(moviesTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get query: %w", err)
	}

	m, err := scanMovie(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, id)
	}
	return m, nil
}

func (s *MovieStore) Insert(ctx context.Context, nm models.NewMovie) (*models.Movie, error) {
	query, args, err := psql.Insert(moviesTable).
		Columns("title", "year", "description", "img_url").
		Values(nm.Title, nm.Year, nm.Description, nm.ImgURL).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	m, err := scanMovie(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to insert movie %q: %w", nm.Title, err)
	}
	return m, nil
}

// UpdateRating sets rating and review on an existing entry. A nil review
// clears it.
func (s *MovieStore) UpdateRating(ctx context.Context, id int, rating float64, review *string) (*models.Movie, error) {
	query, args, err := psql.Update(moviesTable).
		Set("rating", rating).
		Set("review", review).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + joinColumns()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	m, err := scanMovie(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err, id)
	}
	return m, nil
}

func (s *MovieStore) Delete(ctx context.Context, id int) error {
	query, args, err := psql.Delete(moviesTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return mapError(err, id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}
	return nil
}

// SaveRankings writes the Ranking of every given movie, changed or not, in
// one transaction.
func (s *MovieStore) SaveRankings(ctx context.Context, movies []models.Movie) error {
	if len(movies) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin ranking update: %w", err)
	}

	for _, m := range movies {
		query, args, err := psql.Update(moviesTable).
			Set("ranking", m.Ranking).
			Where(sq.Eq{"id": m.ID}).
			ToSql()
		if err == nil {
			_, err = tx.Exec(ctx, query, args...)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to save ranking for movie %d: %w", m.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rankings: %w", err)
	}
	return nil
}

func (s *MovieStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func scanMovie(row pgx.Row) (*models.Movie, error) {
	var m models.Movie
	err := row.Scan(
		&m.ID,
		&m.Title,
		&m.Year,
		&m.Description,
		&m.Rating,
		&m.Ranking,
		&m.Review,
		&m.ImgURL,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func mapError(err error, id int) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}
	return fmt.Errorf("movie %d: %w", id, err)
}

func joinColumns() string {
	return strings.Join(movieColumns, ", ")
}
