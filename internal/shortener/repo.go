package shortener

import "context"

// Repository is the store contract for links. Every method runs exactly one
// statement, so each call is atomic on its own.
//
// Implementations report failures as *errx.Error: NotFound wrapping
// ErrNotFound when no row matches, Conflict wrapping ErrCodeExists on a
// duplicate code, Unavailable for any other store fault.
type Repository interface {
	Create(ctx context.Context, link Link) (Link, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	GetByCode(ctx context.Context, code string) (Link, error)
	// ResolveAndTrack increments the click count and stamps last_clicked_at
	// in the same statement that reads the row back.
	ResolveAndTrack(ctx context.Context, code string) (Link, error)
	Delete(ctx context.Context, code string) error
	// List returns every link, newest first.
	List(ctx context.Context) ([]Link, error)
}
