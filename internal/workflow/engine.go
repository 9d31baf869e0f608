package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/psds-microservice/chamados-service/internal/directory"
	"github.com/psds-microservice/chamados-service/internal/errs"
	"github.com/psds-microservice/chamados-service/internal/events"
	"github.com/psds-microservice/chamados-service/internal/model"
	"github.com/psds-microservice/chamados-service/internal/service"
)

// TicketView is a ticket as shown to a role: store label resolved, color
// hint attached when the role's view uses it.
type TicketView struct {
	ID          uint64             `json:"id"`
	StoreID     int                `json:"loja_id"`
	Store       string             `json:"loja"`
	Description string             `json:"descricao"`
	Priority    model.Priority     `json:"prioridade"`
	Color       string             `json:"cor,omitempty"`
	Status      model.TicketStatus `json:"status"`
	RequestedBy string             `json:"solicitado_por"`
	CreatedAt   time.Time          `json:"criado_em"`
	UpdatedAt   time.Time          `json:"atualizado_em"`

	CanMarkViewed bool `json:"-"`
	CanConclude   bool `json:"-"`
	CanEdit       bool `json:"-"`
	CanDelete     bool `json:"-"`
}

// Result is the outcome of a mutating action. Changed is false when a
// guarded transition was skipped.
type Result struct {
	Message string      `json:"message"`
	Ticket  *TicketView `json:"chamado,omitempty"`
	Changed bool        `json:"-"`
}

type CreateInput struct {
	StoreID     int
	Description string
	Priority    string
	RequestedBy string
}

type EditInput struct {
	Description string
	Priority    string
	Status      string
}

type Engine struct {
	tickets service.TicketServicer
	stores  *directory.Directory
	events  events.TicketEventPublisher
}

func NewEngine(tickets service.TicketServicer, stores *directory.Directory, publisher events.TicketEventPublisher) *Engine {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Engine{tickets: tickets, stores: stores, events: publisher}
}

// Stores returns the store catalog for ticket forms.
func (e *Engine) Stores() []directory.Store {
	return e.stores.All()
}

func (e *Engine) view(role model.Role, t *model.Ticket) *TicketView {
	v := &TicketView{
		ID:          t.ID,
		StoreID:     t.StoreID,
		Store:       e.stores.Label(t.StoreID),
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		RequestedBy: t.RequestedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,

		CanMarkViewed: Allowed(role, ActionMarkViewed) && CanTransition(t.Status, model.TicketStatusViewed),
		CanConclude:   Allowed(role, ActionConclude) && CanTransition(t.Status, model.TicketStatusConcluded),
		CanEdit:       Allowed(role, ActionEdit),
		CanDelete:     Allowed(role, ActionDelete),
	}
	if ShowsColors(role) {
		v.Color = ColorFor(t.Priority)
	}
	return v
}

func (e *Engine) publish(ctx context.Context, event string, role model.Role, t *model.Ticket) {
	e.events.PublishTicketEvent(ctx, event, map[string]interface{}{
		"ticket_id":  t.ID,
		"loja_id":    t.StoreID,
		"prioridade": string(t.Priority),
		"status":     string(t.Status),
		"papel":      string(role),
	})
}

// storageFailure logs unexpected store errors with the operation and ticket id.
func storageFailure(op string, id uint64, err error) error {
	if !errors.Is(err, errs.ErrTicketNotFound) {
		log.Printf("workflow: %s ticket %d: %v", op, id, err)
	}
	return err
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errs.ErrInvalidTicket, fmt.Sprintf(format, args...))
}

func (in CreateInput) normalize() (*model.Ticket, error) {
	t := &model.Ticket{
		StoreID:     in.StoreID,
		Description: strings.TrimSpace(in.Description),
		Priority:    model.NormalizePriority(in.Priority),
		RequestedBy: strings.TrimSpace(in.RequestedBy),
	}
	switch {
	case t.StoreID < math.MinInt32 || t.StoreID > math.MaxInt32:
		return nil, invalid("loja_id out of range")
	case t.Description == "":
		return nil, invalid("descricao is required")
	case t.RequestedBy == "":
		return nil, invalid("solicitado_por is required")
	case utf8.RuneCountInString(t.RequestedBy) > model.RequestedByMaxLen:
		return nil, invalid("solicitado_por must have at most %d characters", model.RequestedByMaxLen)
	case !t.Priority.Valid():
		return nil, invalid("prioridade must be alta, média or baixa")
	}
	return t, nil
}

func (in EditInput) normalize() (model.TicketEdit, error) {
	edit := model.TicketEdit{
		Description: strings.TrimSpace(in.Description),
		Priority:    model.NormalizePriority(in.Priority),
		Status:      model.TicketStatus(strings.TrimSpace(in.Status)),
	}
	switch {
	case edit.Description == "":
		return edit, invalid("descricao is required")
	case !edit.Priority.Valid():
		return edit, invalid("prioridade must be alta, média or baixa")
	case !edit.Status.Valid():
		return edit, invalid("status must be aberto, visualizado or concluído")
	}
	return edit, nil
}

// Create opens a new ticket in status aberto.
func (e *Engine) Create(ctx context.Context, role model.Role, in CreateInput) (*Result, error) {
	if err := Authorize(role, ActionCreate); err != nil {
		return nil, err
	}
	t, err := in.normalize()
	if err != nil {
		return nil, err
	}
	if err := e.tickets.Create(ctx, t); err != nil {
		log.Printf("workflow: create ticket for loja %d: %v", t.StoreID, err)
		return nil, err
	}
	e.publish(ctx, events.TicketCreated, role, t)
	return &Result{Message: "Chamado criado com sucesso", Ticket: e.view(role, t), Changed: true}, nil
}

func (e *Engine) Get(ctx context.Context, role model.Role, id uint64) (*TicketView, error) {
	if err := Authorize(role, ActionGet); err != nil {
		return nil, err
	}
	t, err := e.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, storageFailure("get", id, err)
	}
	return e.view(role, t), nil
}

// List returns every ticket in the order of role's view.
func (e *Engine) List(ctx context.Context, role model.Role) ([]TicketView, error) {
	if err := Authorize(role, ActionList); err != nil {
		return nil, err
	}
	order := ListOrderFor(role)
	items, err := e.tickets.List(ctx, order)
	if err != nil {
		log.Printf("workflow: list tickets (%s): %v", order, err)
		return nil, err
	}
	out := make([]TicketView, 0, len(items))
	for i := range items {
		out = append(out, *e.view(role, &items[i]))
	}
	return out, nil
}

// ListFor returns the listing of view, which role must be entitled to read.
func (e *Engine) ListFor(ctx context.Context, role, view model.Role) ([]TicketView, error) {
	if err := AuthorizeListing(role, view); err != nil {
		return nil, err
	}
	return e.List(ctx, role)
}

// MarkViewed moves an open ticket to visualizado. Viewed or concluded
// tickets are returned unchanged without error.
func (e *Engine) MarkViewed(ctx context.Context, role model.Role, id uint64) (*Result, error) {
	return e.transition(ctx, role, id, ActionMarkViewed, model.TicketStatusViewed, events.TicketViewed, "Chamado visualizado com sucesso")
}

// Conclude moves a ticket to concluído. Concluding again is a no-op.
func (e *Engine) Conclude(ctx context.Context, role model.Role, id uint64) (*Result, error) {
	return e.transition(ctx, role, id, ActionConclude, model.TicketStatusConcluded, events.TicketConcluded, "Chamado concluído com sucesso")
}

func (e *Engine) transition(ctx context.Context, role model.Role, id uint64, action Action, to model.TicketStatus, event, okMsg string) (*Result, error) {
	if err := Authorize(role, action); err != nil {
		return nil, err
	}
	t, changed, err := e.tickets.UpdateStatus(ctx, id, to, model.GuardNotConcluded)
	if err != nil {
		return nil, storageFailure(string(action), id, err)
	}
	if !changed {
		return &Result{Message: "Chamado já estava " + string(t.Status), Ticket: e.view(role, t)}, nil
	}
	e.publish(ctx, event, role, t)
	return &Result{Message: okMsg, Ticket: e.view(role, t), Changed: true}, nil
}

// Edit overwrites description, priority and status. It is the only path
// that can leave concluído.
func (e *Engine) Edit(ctx context.Context, role model.Role, id uint64, in EditInput) (*Result, error) {
	if err := Authorize(role, ActionEdit); err != nil {
		return nil, err
	}
	edit, err := in.normalize()
	if err != nil {
		return nil, err
	}
	t, err := e.tickets.FullEdit(ctx, id, edit)
	if err != nil {
		return nil, storageFailure("edit", id, err)
	}
	e.publish(ctx, events.TicketEdited, role, t)
	return &Result{Message: "Chamado atualizado com sucesso", Ticket: e.view(role, t), Changed: true}, nil
}

// Delete removes the ticket permanently.
func (e *Engine) Delete(ctx context.Context, role model.Role, id uint64) (*Result, error) {
	if err := Authorize(role, ActionDelete); err != nil {
		return nil, err
	}
	if err := e.tickets.Delete(ctx, id); err != nil {
		return nil, storageFailure("delete", id, err)
	}
	e.events.PublishTicketEvent(ctx, events.TicketDeleted, map[string]interface{}{
		"ticket_id": id,
		"papel":     string(role),
	})
	return &Result{Message: "Chamado excluído com sucesso", Changed: true}, nil
}
