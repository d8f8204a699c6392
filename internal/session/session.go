// Package session runs the browsing control loop. One goroutine owns the
// filter, the current projection snapshot and the delete selection; every
// command is serialized through it, and store change notifications trigger a
// full recompute from the same goroutine.
package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/attach"
	"github.com/erazemk/inventar/internal/i18n"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/projection"
	"github.com/erazemk/inventar/internal/query"
	"github.com/erazemk/inventar/internal/selection"
)

// ErrClosed is returned for commands sent after the loop has stopped.
var ErrClosed = errors.New("session closed")

// Store is the record store as seen by a session.
type Store interface {
	projection.Source
	Subscribe() (<-chan struct{}, func())
	MissingCatalogs(ctx context.Context) ([]model.CatalogKind, error)
	ListCatalog(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntry, error)
	CreateItem(ctx context.Context, in model.ItemInput) (*model.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, in model.ItemInput) (*model.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	DuplicateItem(ctx context.Context, id uuid.UUID, name string) (*model.Item, error)
	SetItemImage(ctx context.Context, id uuid.UUID, a model.Attachment) error
	SetItemInvoice(ctx context.Context, id uuid.UUID, a model.Attachment) error
}

// Metrics receives session events. All methods must be safe to call from the
// control goroutine.
type Metrics interface {
	projection.Observer
	BatchDeleteFailed(n int)
	AttachmentProcessed(kind string, err error)
}

// Option configures a Session.
type Option func(*Session)

// WithImporter sets the attachment importer.
func WithImporter(im *attach.Importer) Option {
	return func(s *Session) { s.importer = im }
}

// WithChime sets the confirmation played after an attachment is stored.
func WithChime(c attach.Chime) Option {
	return func(s *Session) { s.chime = c }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// Session is the browsing state of the single owner.
type Session struct {
	store    Store
	loc      *i18n.Localizer
	importer *attach.Importer
	chime    attach.Chime
	metrics  Metrics

	cmds    chan func()
	stopped chan struct{}

	// Owned by the control goroutine.
	events <-chan struct{}
	proj   *projection.Projector
	filter query.Filter
	snap   *projection.Snapshot
	sel    selection.Controller
}

// New returns a session. Call Run to start its loop.
func New(store Store, loc *i18n.Localizer, opts ...Option) *Session {
	s := &Session{
		store:   store,
		loc:     loc,
		cmds:    make(chan func()),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.importer == nil {
		s.importer = attach.NewImporter()
	}
	if s.chime == nil {
		s.chime = attach.LogChime{}
	}

	var observer projection.Observer
	if s.metrics != nil {
		observer = s.metrics
	}
	s.proj = projection.NewProjector(store, loc, observer)
	s.snap = projection.Empty(loc)
	return s
}

// Run executes the control loop until ctx is cancelled. It must be called
// exactly once.
func (s *Session) Run(ctx context.Context) {
	defer close(s.stopped)

	events, cancel := s.store.Subscribe()
	defer cancel()
	s.events = events

	if err := s.recompute(ctx); err != nil {
		slog.Error("initial projection failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-events:
			if err := s.recompute(ctx); err != nil {
				slog.Error("projection recompute failed", "error", err)
			}
		case fn := <-s.cmds:
			s.sync(ctx)
			fn()
		}
	}
}

// do runs fn on the control goroutine and waits for it to finish.
func (s *Session) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	cmd := func() {
		defer close(done)
		fn()
	}

	select {
	case s.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// sync recomputes if a store change is pending, so the next command observes
// every committed mutation. A burst of changes coalesces into one recompute.
func (s *Session) sync(ctx context.Context) {
	select {
	case <-s.events:
		if err := s.recompute(ctx); err != nil {
			slog.Error("projection recompute failed", "error", err)
		}
	default:
	}
}

// drain discards a pending store change notification.
func (s *Session) drain() {
	select {
	case <-s.events:
	default:
	}
}

// recompute replaces the snapshot. On failure the previous snapshot stays.
func (s *Session) recompute(ctx context.Context) error {
	snap, err := s.proj.Recompute(ctx, s.filter)
	if err != nil {
		return err
	}
	s.snap = snap
	return nil
}
