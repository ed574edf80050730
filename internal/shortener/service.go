package shortener

import (
	"context"
	"fmt"

	"github.com/sundayezeilo/tinylink/codegen"
	"github.com/sundayezeilo/tinylink/internal/errx"
)

const (
	DefaultCodeGenerationAttempts = 5
	MaxCodeGenerationAttempts     = 100
)

// Resolution outcomes reported to Metrics.
const (
	ResolveHit   = "hit"
	ResolveMiss  = "miss"
	ResolveError = "error"
)

// CreateLinkRequest represents the parameters for creating a new link.
type CreateLinkRequest struct {
	URL  string
	Code string // Optional: if empty, a code will be generated
}

// Service defines the business logic operations for URL shortening.
type Service interface {
	Create(ctx context.Context, req CreateLinkRequest) (Link, error)
	Get(ctx context.Context, code string) (Link, error)
	Resolve(ctx context.Context, code string) (string, error)
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]Link, error)
}

// Metrics receives domain events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	LinkCreated(custom bool)
	CodeCollision()
	LinkResolved(outcome string)
}

type nopMetrics struct{}

func (nopMetrics) LinkCreated(bool)    {}
func (nopMetrics) CodeCollision()      {}
func (nopMetrics) LinkResolved(string) {}

// service implements the Service interface.
type service struct {
	repo       Repository
	generator  codegen.Generator
	codeLength int
	attempts   int
	metrics    Metrics
	reserved   map[string]struct{}
}

// ServiceConfig holds configuration for the service.
type ServiceConfig struct {
	CodeGenerator          codegen.Generator
	CodeLength             int // length of generated codes (default: 6)
	CodeGenerationAttempts int // attempts when generating a unique code (default: 5)
	Metrics                Metrics

	// ReservedCodes can never be stored because the router serves them
	// itself (e.g. "healthz"). Matching is case-sensitive.
	ReservedCodes []string
}

// NewService creates a new service instance.
func NewService(repo Repository, config *ServiceConfig) Service {
	if config == nil {
		config = &ServiceConfig{}
	}

	gen := config.CodeGenerator
	if gen == nil {
		gen = codegen.New()
	}

	length := config.CodeLength
	if length < codegen.MinLength || length > codegen.MaxLength {
		length = codegen.DefaultLength
	}

	attempts := config.CodeGenerationAttempts
	if attempts <= 0 || attempts > MaxCodeGenerationAttempts {
		attempts = DefaultCodeGenerationAttempts
	}

	var m Metrics = nopMetrics{}
	if config.Metrics != nil {
		m = config.Metrics
	}

	reserved := make(map[string]struct{}, len(config.ReservedCodes))
	for _, code := range config.ReservedCodes {
		reserved[code] = struct{}{}
	}

	return &service{
		repo:       repo,
		generator:  gen,
		codeLength: length,
		attempts:   attempts,
		metrics:    m,
		reserved:   reserved,
	}
}

func (s *service) isReserved(code string) bool {
	_, ok := s.reserved[code]
	return ok
}

// Create stores a new link under the custom code, or under a freshly
// generated one when req.Code is empty. Input is validated before the store
// is touched.
func (s *service) Create(ctx context.Context, req CreateLinkRequest) (Link, error) {
	const op = "shortener.service.Create"

	target, err := ValidateURL(req.URL)
	if err != nil {
		return Link{}, errx.E(op, errx.Invalid, err)
	}

	// Custom code path: validate and create once. A duplicate is the
	// caller's problem and is never retried.
	if req.Code != "" {
		if err := ValidateCustomCode(req.Code); err != nil {
			return Link{}, errx.E(op, errx.Invalid, err)
		}
		if s.isReserved(req.Code) {
			return Link{}, errx.E(op, errx.Invalid, fmt.Errorf("%w: %q is reserved", ErrInvalidCode, req.Code))
		}

		created, err := s.repo.Create(ctx, Link{Code: req.Code, URL: target})
		if err != nil {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}
		s.metrics.LinkCreated(true)
		return created, nil
	}

	// Generated code path: the pre-check avoids most collisions, the primary
	// key catches the rest. Both consume an attempt.
	for range s.attempts {
		code, err := s.generator.Generate(s.codeLength)
		if err != nil {
			return Link{}, errx.E(op, errx.Internal, err)
		}
		if s.isReserved(code) {
			s.metrics.CodeCollision()
			continue
		}

		taken, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}
		if taken {
			s.metrics.CodeCollision()
			continue
		}

		created, err := s.repo.Create(ctx, Link{Code: code, URL: target})
		if err == nil {
			s.metrics.LinkCreated(false)
			return created, nil
		}

		// Retry on conflict, fail on other errors
		if errx.KindOf(err) != errx.Conflict {
			return Link{}, errx.E(op, errx.KindOf(err), err)
		}
		s.metrics.CodeCollision()
	}

	return Link{}, errx.E(op, errx.Internal,
		fmt.Errorf("%w after %d attempts", ErrGenerationExhausted, s.attempts))
}

// Get returns the link without touching its click accounting.
func (s *service) Get(ctx context.Context, code string) (Link, error) {
	const op = "shortener.service.Get"

	if err := ValidateCustomCode(code); err != nil {
		return Link{}, notFound(op, err)
	}

	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return Link{}, errx.E(op, errx.KindOf(err), err)
	}
	return link, nil
}

// Resolve returns the target URL for code and records one click. The
// increment happens in the store, in the same statement as the lookup.
func (s *service) Resolve(ctx context.Context, code string) (string, error) {
	const op = "shortener.service.Resolve"

	// A code that fails the format check cannot exist.
	if err := ValidateCustomCode(code); err != nil {
		s.metrics.LinkResolved(ResolveMiss)
		return "", notFound(op, err)
	}

	link, err := s.repo.ResolveAndTrack(ctx, code)
	if err != nil {
		if errx.KindOf(err) == errx.NotFound {
			s.metrics.LinkResolved(ResolveMiss)
		} else {
			s.metrics.LinkResolved(ResolveError)
		}
		return "", errx.E(op, errx.KindOf(err), err)
	}

	s.metrics.LinkResolved(ResolveHit)
	return link.URL, nil
}

func (s *service) Delete(ctx context.Context, code string) error {
	const op = "shortener.service.Delete"

	if err := ValidateCustomCode(code); err != nil {
		return notFound(op, err)
	}

	if err := s.repo.Delete(ctx, code); err != nil {
		return errx.E(op, errx.KindOf(err), err)
	}
	return nil
}

// List returns every link, newest first.
// TODO: add cursor pagination on (created_at, code) once link counts outgrow a single page.
func (s *service) List(ctx context.Context) ([]Link, error) {
	const op = "shortener.service.List"

	links, err := s.repo.List(ctx)
	if err != nil {
		return nil, errx.E(op, errx.KindOf(err), err)
	}
	if links == nil {
		links = []Link{}
	}
	return links, nil
}

func notFound(op string, cause error) error {
	return errx.E(op, errx.NotFound, fmt.Errorf("%w: %v", ErrNotFound, cause))
}
