package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/samber/lo"

	"github.com/sundayezeilo/tinylink/internal/errx"
	"github.com/sundayezeilo/tinylink/internal/shortener"
)

const linksTable = "links"

// goqu's registered sqlite3 dialect predates RETURNING; the default dialect
// renders it and uses "?" placeholders, which SQLite and libSQL both accept.
const dialect = "sqlite"

var linkColumns = []any{"code", "url", "click_count", "last_clicked_at", "created_at"}

type linkRow struct {
	Code          string        `db:"code"`
	URL           string        `db:"url"`
	ClickCount    int64         `db:"click_count"`
	LastClickedAt NullTimestamp `db:"last_clicked_at"`
	CreatedAt     Timestamp     `db:"created_at"`
}

func (r linkRow) toDomain() shortener.Link {
	return shortener.Link{
		Code:          r.Code,
		URL:           r.URL,
		ClickCount:    r.ClickCount,
		LastClickedAt: r.LastClickedAt.Ptr(),
		CreatedAt:     r.CreatedAt.Time().UTC(),
	}
}

// Store implements shortener.Repository on SQLite or libSQL.
type Store struct {
	db  *sql.DB
	q   *goqu.Database
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for created_at and last_clicked_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New returns a Store over an already opened and migrated database.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:  db,
		q:   goqu.New(dialect, db),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ shortener.Repository = (*Store)(nil)

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func mapStoreError(op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return errx.E(op, errx.NotFound, fmt.Errorf("%w: %w", shortener.ErrNotFound, err))

	case isCodeUniqueViolation(err):
		return errx.E(op, errx.Conflict, fmt.Errorf("%w: %w", shortener.ErrCodeExists, err))

	default:
		return errx.E(op, errx.Unavailable, err)
	}
}

func notFound(op string) error {
	return errx.E(op, errx.NotFound, shortener.ErrNotFound)
}

func byCode(code string) exp.Expression {
	return goqu.C("code").Eq(code)
}

func (s *Store) Create(ctx context.Context, link shortener.Link) (shortener.Link, error) {
	const op = "sqlite.store.Create"

	ds := s.q.Insert(linksTable).
		Rows(goqu.Record{
			"code":        link.Code,
			"url":         link.URL,
			"click_count": 0,
			"created_at":  Timestamp(s.now().UTC()),
		}).
		Returning(linkColumns...).
		Prepared(true)

	var row linkRow
	found, err := ds.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return shortener.Link{}, mapStoreError(op, err)
	}
	if !found {
		return shortener.Link{}, errx.E(op, errx.Internal, errors.New("insert returned no row"))
	}
	return row.toDomain(), nil
}

func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	const op = "sqlite.store.CodeExists"

	var got string
	found, err := s.q.From(linksTable).
		Select("code").
		Where(byCode(code)).
		Limit(1).
		Prepared(true).
		ScanValContext(ctx, &got)
	if err != nil {
		return false, mapStoreError(op, err)
	}
	return found, nil
}

func (s *Store) GetByCode(ctx context.Context, code string) (shortener.Link, error) {
	const op = "sqlite.store.GetByCode"

	var row linkRow
	found, err := s.q.From(linksTable).
		Select(linkColumns...).
		Where(byCode(code)).
		Prepared(true).
		ScanStructContext(ctx, &row)
	if err != nil {
		return shortener.Link{}, mapStoreError(op, err)
	}
	if !found {
		return shortener.Link{}, notFound(op)
	}
	return row.toDomain(), nil
}

// ResolveAndTrack bumps the counter and returns the row in one UPDATE ... RETURNING.
func (s *Store) ResolveAndTrack(ctx context.Context, code string) (shortener.Link, error) {
	const op = "sqlite.store.ResolveAndTrack"

	ds := s.q.Update(linksTable).
		Set(goqu.Record{
			"click_count":     goqu.L("click_count + 1"),
			"last_clicked_at": Timestamp(s.now().UTC()),
		}).
		Where(byCode(code)).
		Returning(linkColumns...).
		Prepared(true)

	var row linkRow
	found, err := ds.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return shortener.Link{}, mapStoreError(op, err)
	}
	if !found {
		return shortener.Link{}, notFound(op)
	}
	return row.toDomain(), nil
}

func (s *Store) Delete(ctx context.Context, code string) error {
	const op = "sqlite.store.Delete"

	var deleted string
	found, err := s.q.Delete(linksTable).
		Where(byCode(code)).
		Returning("code").
		Prepared(true).
		Executor().
		ScanValContext(ctx, &deleted)
	if err != nil {
		return mapStoreError(op, err)
	}
	if !found {
		return notFound(op)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]shortener.Link, error) {
	const op = "sqlite.store.List"

	var rows []linkRow
	err := s.q.From(linksTable).
		Select(linkColumns...).
		Order(goqu.C("created_at").Desc(), goqu.C("code").Asc()).
		Prepared(true).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, mapStoreError(op, err)
	}

	return lo.Map(rows, func(r linkRow, _ int) shortener.Link {
		return r.toDomain()
	}), nil
}
