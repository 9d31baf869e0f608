// Package workflow holds the ticket rules: which role may do what, how each
// role's listing is ordered, and which status transitions are legal.
// Functions here are pure; Engine applies them around the ticket store.
package workflow

import (
	"fmt"

	"github.com/psds-microservice/chamados-service/internal/errs"
	"github.com/psds-microservice/chamados-service/internal/model"
)

type Action string

const (
	ActionCreate     Action = "create"
	ActionList       Action = "list"
	ActionGet        Action = "get"
	ActionMarkViewed Action = "mark_viewed"
	ActionConclude   Action = "conclude"
	ActionEdit       Action = "edit"
	ActionDelete     Action = "delete"
)

type capability struct {
	actions map[Action]bool
	// listing is the only per-role ticket listing the role may read.
	listing model.Role
	order   model.ListOrder
	colors  bool
}

var capabilities = map[model.Role]capability{
	model.RoleManager: {
		actions: actions(ActionCreate, ActionList, ActionGet, ActionConclude),
		listing: model.RoleManager,
		order:   model.OrderRecency,
	},
	model.RoleInspector: {
		actions: actions(ActionList, ActionGet, ActionMarkViewed, ActionConclude),
		listing: model.RoleInspector,
		order:   model.OrderPriority,
		colors:  true,
	},
	model.RoleAdmin: {
		actions: actions(ActionList, ActionGet, ActionConclude, ActionEdit, ActionDelete),
		listing: model.RoleAdmin,
		order:   model.OrderRecency,
	},
}

func actions(list ...Action) map[Action]bool {
	m := make(map[Action]bool, len(list))
	for _, a := range list {
		m[a] = true
	}
	return m
}

// Allowed reports whether role may perform action.
func Allowed(role model.Role, action Action) bool {
	return capabilities[role].actions[action]
}

// Authorize returns errs.ErrForbidden when role may not perform action.
func Authorize(role model.Role, action Action) error {
	if Allowed(role, action) {
		return nil
	}
	return fmt.Errorf("%w: %s cannot %s", errs.ErrForbidden, role, action)
}

// AuthorizeListing returns errs.ErrForbidden unless role may read the
// listing of view.
func AuthorizeListing(role, view model.Role) error {
	if err := Authorize(role, ActionList); err != nil {
		return err
	}
	if capabilities[role].listing != view {
		return fmt.Errorf("%w: %s cannot read the %s listing", errs.ErrForbidden, role, view)
	}
	return nil
}

// ListOrderFor returns the listing order of role's view.
func ListOrderFor(role model.Role) model.ListOrder {
	return capabilities[role].order
}

// ShowsColors reports whether role's view carries the priority color hint.
func ShowsColors(role model.Role) bool {
	return capabilities[role].colors
}

const (
	ColorRed    = "vermelho"
	ColorYellow = "amarelo"
	ColorGreen  = "verde"
)

// ColorFor maps a priority to its display color. Unknown priorities get "".
func ColorFor(p model.Priority) string {
	switch model.NormalizePriority(string(p)) {
	case model.PriorityHigh:
		return ColorRed
	case model.PriorityMedium:
		return ColorYellow
	case model.PriorityLow:
		return ColorGreen
	}
	return ""
}

// CanTransition reports whether a guarded transition from → to fires.
// Only forward moves are legal and concluído is terminal.
func CanTransition(from, to model.TicketStatus) bool {
	switch from {
	case model.TicketStatusOpen:
		return to == model.TicketStatusViewed || to == model.TicketStatusConcluded
	case model.TicketStatusViewed:
		return to == model.TicketStatusConcluded
	}
	return false
}
