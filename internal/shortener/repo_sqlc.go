package shortener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"

	db "github.com/sundayezeilo/tinylink/internal/db/sqlc"
	"github.com/sundayezeilo/tinylink/internal/errx"
)

// querier is an internal interface that abstracts *db.Queries
type querier interface {
	CreateLink(ctx context.Context, arg db.CreateLinkParams) (db.Link, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	GetLinkByCode(ctx context.Context, code string) (db.Link, error)
	ResolveAndTrackLink(ctx context.Context, code string) (db.Link, error)
	DeleteLink(ctx context.Context, code string) (string, error)
	ListLinks(ctx context.Context) ([]db.Link, error)
}

type repo struct {
	q querier
}

// NewRepository creates a Postgres-backed Repository over sqlc queries.
func NewRepository(q querier) Repository {
	return &repo{q: q}
}

func mustTime(ts pgtype.Timestamptz, field string) (time.Time, error) {
	if !ts.Valid {
		return time.Time{}, fmt.Errorf("%s unexpectedly NULL", field)
	}
	return ts.Time.UTC(), nil
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

func toDomainLink(x db.Link) (Link, error) {
	createdAt, err := mustTime(x.CreatedAt, "created_at")
	if err != nil {
		return Link{}, err
	}

	return Link{
		Code:          x.Code,
		URL:           x.Url,
		ClickCount:    x.ClickCount,
		LastClickedAt: timePtr(x.LastClickedAt),
		CreatedAt:     createdAt,
	}, nil
}

func mapRepoError(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return errx.E(op, errx.NotFound, fmt.Errorf("%w: %w", ErrNotFound, err))

	case isCodeUniqueViolation(err):
		return errx.E(op, errx.Conflict, fmt.Errorf("%w: %w", ErrCodeExists, err))

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func (r *repo) Create(ctx context.Context, link Link) (Link, error) {
	const op = "shortener.repo.Create"

	row, err := r.q.CreateLink(ctx, db.CreateLinkParams{
		Code: link.Code,
		Url:  link.URL,
	})
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	out, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return out, nil
}

func (r *repo) CodeExists(ctx context.Context, code string) (bool, error) {
	const op = "shortener.repo.CodeExists"

	exists, err := r.q.CodeExists(ctx, code)
	if err != nil {
		return false, mapRepoError(op, err)
	}
	return exists, nil
}

func (r *repo) GetByCode(ctx context.Context, code string) (Link, error) {
	const op = "shortener.repo.GetByCode"

	row, err := r.q.GetLinkByCode(ctx, code)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	out, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return out, nil
}

func (r *repo) ResolveAndTrack(ctx context.Context, code string) (Link, error) {
	const op = "shortener.repo.ResolveAndTrack"

	row, err := r.q.ResolveAndTrackLink(ctx, code)
	if err != nil {
		return Link{}, mapRepoError(op, err)
	}

	out, err := toDomainLink(row)
	if err != nil {
		return Link{}, errx.E(op, errx.Internal, err)
	}
	return out, nil
}

func (r *repo) Delete(ctx context.Context, code string) error {
	const op = "shortener.repo.Delete"

	if _, err := r.q.DeleteLink(ctx, code); err != nil {
		return mapRepoError(op, err)
	}
	return nil
}

func (r *repo) List(ctx context.Context) ([]Link, error) {
	const op = "shortener.repo.List"

	rows, err := r.q.ListLinks(ctx)
	if err != nil {
		return nil, mapRepoError(op, err)
	}

	var convErr error
	links := lo.Map(rows, func(row db.Link, _ int) Link {
		l, err := toDomainLink(row)
		if err != nil && convErr == nil {
			convErr = err
		}
		return l
	})
	if convErr != nil {
		return nil, errx.E(op, errx.Internal, convErr)
	}
	return links, nil
}
