// Package editor implements the operator's editing session: commands that
// change the catalog, the per-collection dirty flags, the in-progress forms,
// and the publish and close transitions.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/content"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/publish"
)

var (
	// ErrConfirmationRequired is returned by a delete that was not confirmed.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrUnsavedChanges is returned by an unconfirmed close while edits are
	// still unpublished.
	ErrUnsavedChanges = errors.New("there are unpublished changes")

	// ErrNothingToPublish is returned by a publish with no edited collection.
	ErrNothingToPublish = errors.New("nothing to publish")

	// ErrSessionClosed is returned for commands sent after Close or Publish.
	ErrSessionClosed = errors.New("editor session is closed")
)

// Publisher hands the edited collections off to the maintainer.
type Publisher interface {
	Publish(ctx context.Context, services []models.Service, prices []models.Price, changes publish.Changes) (publish.Message, error)
}

// ServiceForm is the in-progress service form. EditingID is zero while the
// form describes a new record.
type ServiceForm struct {
	EditingID int
	Input     models.ServiceInput
}

// PriceForm is the in-progress price form.
type PriceForm struct {
	EditingID int
	Input     models.PriceInput
}

// Result describes what a command did. Notice is the operator-facing message.
type Result struct {
	Notice  string
	Service *models.Service
	Price   *models.Price
	// Removed is false when a confirmed delete matched no record.
	Removed bool
	Message *publish.Message
	Closed  bool
}

// Session is one operator's editing session. Commands are applied one at a
// time in arrival order; the catalog itself lives in the shared store.
type Session struct {
	ID string

	store     *content.Store
	publisher Publisher

	mu          sync.Mutex
	dirty       publish.Changes
	serviceForm ServiceForm
	priceForm   PriceForm
	lastActive  time.Time
	closed      bool
}

// NewSession opens a clean session: no dirty flags and empty forms.
func NewSession(store *content.Store, publisher Publisher) *Session {
	return &Session{
		ID:         uuid.NewString(),
		store:      store,
		publisher:  publisher,
		lastActive: time.Now(),
	}
}

// Apply runs one command against the session.
func (s *Session) Apply(ctx context.Context, cmd Command) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Result{}, ErrSessionClosed
	}
	s.lastActive = time.Now()
	return cmd.apply(ctx, s)
}

// Dirty reports which collections were edited since the last publish or close.
func (s *Session) Dirty() publish.Changes {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// ServiceForm returns the current service form state.
func (s *Session) ServiceForm() ServiceForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serviceForm
}

// PriceForm returns the current price form state.
func (s *Session) PriceForm() PriceForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priceForm
}

// LastActive is when the session last applied a command.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Closed reports whether the session has ended.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// expired reports whether the session is closed or was last active before
// cutoff. A session whose lock is held is mid-command and reports false.
func (s *Session) expired(cutoff time.Time) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	return s.closed || s.lastActive.Before(cutoff)
}

// Store returns the catalog store the session edits.
func (s *Session) Store() *content.Store {
	return s.store
}

func (s *Session) resetForms() {
	s.serviceForm = ServiceForm{}
	s.priceForm = PriceForm{}
}
