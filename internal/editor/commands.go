package editor

import (
	"context"
	"errors"
	"strconv"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/publish"
)

// Operator-facing notices.
const (
	NoticeSaved          = "✓ Cambios guardados"
	NoticeServiceDeleted = "✓ Servicio eliminado"
	NoticePriceDeleted   = "✓ Precio eliminado"
	NoticeEditCancelled  = "Edición cancelada"
	NoticePublishing     = "✓ Enviando cambios por WhatsApp..."
	NoticeClosed         = "Panel cerrado"
	NoticeMissingFields  = "⚠ Por favor completá todos los campos"
	NoticeNoItems        = "⚠ Agregá al menos un item"
	NoticeInvalidPrice   = "⚠ El precio debe ser un número entero"
	NoticeNotFound       = "⚠ El registro ya no existe"
	NoticeNothingToSend  = "⚠ No hay cambios para enviar"
	NoticeUnsavedChanges = "Hay cambios sin enviar. ¿Querés cerrar sin enviar?"
	NoticeConfirmService = "¿Estás seguro de eliminar este servicio?"
	NoticeConfirmPrice   = "¿Estás seguro de eliminar este precio?"
)

// Command is an editor operation. The set of commands is closed.
type Command interface {
	apply(ctx context.Context, s *Session) (Result, error)
}

// CreateService adds a new service from the form input.
type CreateService struct {
	Input models.ServiceInput
}

// UpdateService replaces the service with ID, keeping its id and position.
type UpdateService struct {
	ID    int
	Input models.ServiceInput
}

// DeleteService removes the service with ID once Confirmed.
type DeleteService struct {
	ID        int
	Confirmed bool
}

// BeginServiceEdit loads an existing service into the service form.
type BeginServiceEdit struct {
	ID int
}

// CancelServiceEdit clears the service form.
type CancelServiceEdit struct{}

// CreatePrice adds a new price entry from the form input.
type CreatePrice struct {
	Input models.PriceInput
}

// UpdatePrice replaces the price entry with ID.
type UpdatePrice struct {
	ID    int
	Input models.PriceInput
}

// DeletePrice removes the price entry with ID once Confirmed.
type DeletePrice struct {
	ID        int
	Confirmed bool
}

// BeginPriceEdit loads an existing price entry into the price form.
type BeginPriceEdit struct {
	ID int
}

// CancelPriceEdit clears the price form.
type CancelPriceEdit struct{}

// Publish hands the edited collections off and ends the session.
type Publish struct{}

// Close ends the session. With unpublished edits it needs Confirmed; the
// edits stay applied either way, only the dirty flags are dropped.
type Close struct {
	Confirmed bool
}

func (c CreateService) apply(_ context.Context, s *Session) (Result, error) {
	svc, err := s.store.AddService(c.Input)
	if err != nil {
		s.serviceForm = ServiceForm{Input: c.Input}
		return Result{Notice: noticeFor(err)}, err
	}
	s.dirty.Services = true
	s.serviceForm = ServiceForm{}
	return Result{Notice: NoticeSaved, Service: &svc}, nil
}

func (c UpdateService) apply(_ context.Context, s *Session) (Result, error) {
	svc, err := s.store.UpdateService(c.ID, c.Input)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.serviceForm = ServiceForm{EditingID: c.ID, Input: c.Input}
		} else {
			s.serviceForm = ServiceForm{}
		}
		return Result{Notice: noticeFor(err)}, err
	}
	s.dirty.Services = true
	s.serviceForm = ServiceForm{}
	return Result{Notice: NoticeSaved, Service: &svc}, nil
}

func (c DeleteService) apply(_ context.Context, s *Session) (Result, error) {
	if !c.Confirmed {
		return Result{Notice: NoticeConfirmService}, ErrConfirmationRequired
	}
	removed, err := s.store.DeleteService(c.ID)
	if err != nil {
		return Result{}, err
	}
	if !removed {
		return Result{Notice: NoticeNotFound}, nil
	}
	s.dirty.Services = true
	if s.serviceForm.EditingID == c.ID {
		s.serviceForm = ServiceForm{}
	}
	return Result{Notice: NoticeServiceDeleted, Removed: true}, nil
}

func (c BeginServiceEdit) apply(_ context.Context, s *Session) (Result, error) {
	svc, err := s.store.Service(c.ID)
	if err != nil {
		return Result{Notice: noticeFor(err)}, err
	}
	s.serviceForm = ServiceForm{
		EditingID: svc.ID,
		Input: models.ServiceInput{
			Name:  svc.Name,
			Icon:  svc.Icon,
			Items: models.JoinItems(svc.Items),
			Price: strconv.Itoa(svc.Price),
		},
	}
	return Result{Service: &svc}, nil
}

func (CancelServiceEdit) apply(_ context.Context, s *Session) (Result, error) {
	s.serviceForm = ServiceForm{}
	return Result{Notice: NoticeEditCancelled}, nil
}

func (c CreatePrice) apply(_ context.Context, s *Session) (Result, error) {
	p, err := s.store.AddPrice(c.Input)
	if err != nil {
		s.priceForm = PriceForm{Input: c.Input}
		return Result{Notice: noticeFor(err)}, err
	}
	s.dirty.Prices = true
	s.priceForm = PriceForm{}
	return Result{Notice: NoticeSaved, Price: &p}, nil
}

func (c UpdatePrice) apply(_ context.Context, s *Session) (Result, error) {
	p, err := s.store.UpdatePrice(c.ID, c.Input)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.priceForm = PriceForm{EditingID: c.ID, Input: c.Input}
		} else {
			s.priceForm = PriceForm{}
		}
		return Result{Notice: noticeFor(err)}, err
	}
	s.dirty.Prices = true
	s.priceForm = PriceForm{}
	return Result{Notice: NoticeSaved, Price: &p}, nil
}

func (c DeletePrice) apply(_ context.Context, s *Session) (Result, error) {
	if !c.Confirmed {
		return Result{Notice: NoticeConfirmPrice}, ErrConfirmationRequired
	}
	removed, err := s.store.DeletePrice(c.ID)
	if err != nil {
		return Result{}, err
	}
	if !removed {
		return Result{Notice: NoticeNotFound}, nil
	}
	s.dirty.Prices = true
	if s.priceForm.EditingID == c.ID {
		s.priceForm = PriceForm{}
	}
	return Result{Notice: NoticePriceDeleted, Removed: true}, nil
}

func (c BeginPriceEdit) apply(_ context.Context, s *Session) (Result, error) {
	p, err := s.store.Price(c.ID)
	if err != nil {
		return Result{Notice: noticeFor(err)}, err
	}
	s.priceForm = PriceForm{
		EditingID: p.ID,
		Input: models.PriceInput{
			Service: p.Service,
			Price:   strconv.Itoa(p.Price),
			Time:    p.Time,
		},
	}
	return Result{Price: &p}, nil
}

func (CancelPriceEdit) apply(_ context.Context, s *Session) (Result, error) {
	s.priceForm = PriceForm{}
	return Result{Notice: NoticeEditCancelled}, nil
}

func (Publish) apply(ctx context.Context, s *Session) (Result, error) {
	if !s.dirty.Any() {
		return Result{Notice: NoticeNothingToSend}, ErrNothingToPublish
	}
	msg, err := s.publisher.Publish(ctx, s.store.Services(), s.store.Prices(), s.dirty)
	if err != nil {
		return Result{}, err
	}
	s.dirty = publish.Changes{}
	s.resetForms()
	s.closed = true
	return Result{Notice: NoticePublishing, Message: &msg, Closed: true}, nil
}

func (c Close) apply(_ context.Context, s *Session) (Result, error) {
	if s.dirty.Any() && !c.Confirmed {
		return Result{Notice: NoticeUnsavedChanges}, ErrUnsavedChanges
	}
	s.dirty = publish.Changes{}
	s.resetForms()
	s.closed = true
	return Result{Notice: NoticeClosed, Closed: true}, nil
}

// noticeFor maps a validation or lookup error to its operator-facing notice.
func noticeFor(err error) string {
	switch {
	case errors.Is(err, models.ErrMissingFields):
		return NoticeMissingFields
	case errors.Is(err, models.ErrNoItems):
		return NoticeNoItems
	case errors.Is(err, models.ErrInvalidPrice):
		return NoticeInvalidPrice
	case errors.Is(err, models.ErrNotFound):
		return NoticeNotFound
	}
	return ""
}
