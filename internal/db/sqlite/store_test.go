package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundayezeilo/tinylink/internal/db/migrations"
	"github.com/sundayezeilo/tinylink/internal/errx"
	"github.com/sundayezeilo/tinylink/internal/shortener"
)

// fakeClock advances one millisecond per call so created_at is strictly increasing.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, Config{Path: filepath.Join(t.TempDir(), "links.db"), MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = migrations.ApplySQLite(ctx, db)
	require.NoError(t, err)

	return New(db, opts...)
}

func TestStore_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.Create(ctx, shortener.Link{Code: "promo24", URL: "http://shop.example/sale"})
	require.NoError(t, err)

	assert.Equal(t, "promo24", created.Code)
	assert.Equal(t, "http://shop.example/sale", created.URL)
	assert.Zero(t, created.ClickCount)
	assert.Nil(t, created.LastClickedAt)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Minute)

	got, err := s.GetByCode(ctx, "promo24")
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestStore_CreateDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, shortener.Link{Code: "promo24", URL: "http://a.example/"})
	require.NoError(t, err)

	_, err = s.Create(ctx, shortener.Link{Code: "promo24", URL: "http://b.example/"})
	require.Error(t, err)
	assert.Equal(t, errx.Conflict, errx.KindOf(err))
	assert.ErrorIs(t, err, shortener.ErrCodeExists)

	got, err := s.GetByCode(ctx, "promo24")
	require.NoError(t, err)
	assert.Equal(t, "http://a.example/", got.URL, "first writer keeps the code")
}

func TestStore_CodesAreCaseSensitive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, shortener.Link{Code: "AbCdEf", URL: "http://a.example/"})
	require.NoError(t, err)
	_, err = s.Create(ctx, shortener.Link{Code: "abcdef", URL: "http://b.example/"})
	require.NoError(t, err)

	got, err := s.GetByCode(ctx, "abcdef")
	require.NoError(t, err)
	assert.Equal(t, "http://b.example/", got.URL)
}

func TestStore_CodeExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	exists, err := s.CodeExists(ctx, "abc123")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Create(ctx, shortener.Link{Code: "abc123", URL: "http://a.example/"})
	require.NoError(t, err)

	exists, err = s.CodeExists(ctx, "abc123")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_ResolveAndTrack(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := newTestStore(t, WithClock(clock.Now))
	ctx := context.Background()

	_, err := s.Create(ctx, shortener.Link{Code: "promo24", URL: "http://shop.example/sale"})
	require.NoError(t, err)

	first, err := s.ResolveAndTrack(ctx, "promo24")
	require.NoError(t, err)
	assert.Equal(t, "http://shop.example/sale", first.URL)
	assert.EqualValues(t, 1, first.ClickCount)
	require.NotNil(t, first.LastClickedAt)

	second, err := s.ResolveAndTrack(ctx, "promo24")
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.ClickCount)
	assert.True(t, second.LastClickedAt.After(*first.LastClickedAt))

	t.Run("unknown code", func(t *testing.T) {
		_, err := s.ResolveAndTrack(ctx, "zzzzzz")
		assert.Equal(t, errx.NotFound, errx.KindOf(err))
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})
}

func TestStore_ConcurrentResolveCountsEveryClick(t *testing.T) {
	const n = 50

	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, shortener.Link{Code: "hot123", URL: "https://example.com/"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ResolveAndTrack(ctx, "hot123"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("ResolveAndTrack: %v", err)
	}

	got, err := s.GetByCode(ctx, "hot123")
	require.NoError(t, err)
	assert.EqualValues(t, n, got.ClickCount)
}

func TestStore_ConcurrentCreateSameCode(t *testing.T) {
	const n = 20

	s := newTestStore(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(ctx, shortener.Link{Code: "shared1", URL: "https://example.com/"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, shortener.ErrCodeExists):
				conflicts++
			default:
				t.Errorf("Create: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, conflicts)
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, shortener.Link{Code: "abc123", URL: "http://a.example/"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "abc123"))

	_, err = s.GetByCode(ctx, "abc123")
	assert.ErrorIs(t, err, shortener.ErrNotFound)

	_, err = s.ResolveAndTrack(ctx, "abc123")
	assert.ErrorIs(t, err, shortener.ErrNotFound)

	err = s.Delete(ctx, "abc123")
	assert.Equal(t, errx.NotFound, errx.KindOf(err))
}

func TestStore_ListNewestFirst(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestStore(t, WithClock(clock.Now))
	ctx := context.Background()

	empty, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, code := range []string{"first1", "second", "third3"} {
		_, err := s.Create(ctx, shortener.Link{Code: code, URL: "https://example.com/" + code})
		require.NoError(t, err)
	}

	links, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, []string{"third3", "second", "first1"},
		[]string{links[0].Code, links[1].Code, links[2].Code})
}

func TestStore_ClosedDatabaseIsUnavailable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.db.Close())

	_, err := s.GetByCode(context.Background(), "abc123")
	assert.Equal(t, errx.Unavailable, errx.KindOf(err))
	assert.True(t, errx.Retryable(err))
}

func TestStore_WithService(t *testing.T) {
	svc := shortener.NewService(newTestStore(t), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, shortener.CreateLinkRequest{URL: "http://shop.example/sale", Code: "promo24"})
	require.NoError(t, err)
	assert.Zero(t, created.ClickCount)

	for range 3 {
		target, err := svc.Resolve(ctx, "promo24")
		require.NoError(t, err)
		assert.Equal(t, "http://shop.example/sale", target)
	}

	got, err := svc.Get(ctx, "promo24")
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.ClickCount)
	assert.NotNil(t, got.LastClickedAt)

	generated, err := svc.Create(ctx, shortener.CreateLinkRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.NoError(t, shortener.ValidateCustomCode(generated.Code))
	assert.Equal(t, "https://example.com/", generated.URL)
}
