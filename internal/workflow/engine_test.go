package workflow_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/psds-microservice/chamados-service/internal/database/dbtest"
	"github.com/psds-microservice/chamados-service/internal/directory"
	"github.com/psds-microservice/chamados-service/internal/errs"
	"github.com/psds-microservice/chamados-service/internal/events"
	"github.com/psds-microservice/chamados-service/internal/model"
	"github.com/psds-microservice/chamados-service/internal/service"
	"github.com/psds-microservice/chamados-service/internal/workflow"
)

type recordedEvent struct {
	name    string
	payload map[string]interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakePublisher) PublishTicketEvent(_ context.Context, event string, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{name: event, payload: payload})
}

func (f *fakePublisher) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.name
	}
	return out
}

func newEngine(t *testing.T) (*workflow.Engine, *fakePublisher) {
	t.Helper()
	clock := time.Date(2025, 9, 12, 15, 0, 0, 0, time.UTC)
	tickets := service.NewTicketService(dbtest.Open(t)).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	pub := &fakePublisher{}
	return workflow.NewEngine(tickets, directory.Default(), pub), pub
}

func mustCreate(t *testing.T, e *workflow.Engine, storeID int, desc, priority string) *workflow.TicketView {
	t.Helper()
	res, err := e.Create(context.Background(), model.RoleManager, workflow.CreateInput{
		StoreID: storeID, Description: desc, Priority: priority, RequestedBy: "Ana",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return res.Ticket
}

func TestEngine_Create(t *testing.T) {
	e, pub := newEngine(t)

	res, err := e.Create(context.Background(), model.RoleManager, workflow.CreateInput{
		StoreID: 1, Description: "Lâmpada queimada", Priority: "baixa", RequestedBy: "Ana",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if res.Ticket.Status != model.TicketStatusOpen {
		t.Errorf("expected status aberto, got %q", res.Ticket.Status)
	}
	if res.Ticket.Store != "LOJA 01" {
		t.Errorf("expected store label 'LOJA 01', got %q", res.Ticket.Store)
	}
	if res.Ticket.ID == 0 {
		t.Error("expected generated id")
	}
	if res.Message != "Chamado criado com sucesso" {
		t.Errorf("unexpected message %q", res.Message)
	}
	if names := pub.names(); len(names) != 1 || names[0] != events.TicketCreated {
		t.Errorf("expected one %s event, got %v", events.TicketCreated, names)
	}
}

func TestEngine_CreateNormalizesPriority(t *testing.T) {
	e, _ := newEngine(t)
	v := mustCreate(t, e, 2, "  Vazamento  ", " MÉDIA ")
	if v.Priority != model.PriorityMedium {
		t.Errorf("expected priority média, got %q", v.Priority)
	}
	if v.Description != "Vazamento" {
		t.Errorf("expected trimmed description, got %q", v.Description)
	}
}

func TestEngine_CreateValidation(t *testing.T) {
	e, pub := newEngine(t)
	tooBig := math.MaxInt32
	tooBig++
	cases := map[string]workflow.CreateInput{
		"empty description":  {StoreID: 1, Description: "  ", Priority: "alta", RequestedBy: "Ana"},
		"missing requester":  {StoreID: 1, Description: "x", Priority: "alta", RequestedBy: ""},
		"bad priority":       {StoreID: 1, Description: "x", Priority: "urgente", RequestedBy: "Ana"},
		"requester too long": {StoreID: 1, Description: "x", Priority: "alta", RequestedBy: strings.Repeat("ç", 101)},
		"store out of range": {StoreID: tooBig, Description: "x", Priority: "alta", RequestedBy: "Ana"},
	}
	for name, in := range cases {
		if _, err := e.Create(context.Background(), model.RoleManager, in); !errors.Is(err, errs.ErrInvalidTicket) {
			t.Errorf("%s: expected ErrInvalidTicket, got %v", name, err)
		}
	}
	if len(pub.names()) != 0 {
		t.Errorf("expected no events for rejected input, got %v", pub.names())
	}
}

func TestEngine_CreateForbiddenForInspector(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.Create(context.Background(), model.RoleInspector, workflow.CreateInput{
		StoreID: 1, Description: "x", Priority: "alta", RequestedBy: "Ana",
	})
	if !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestEngine_CreateAcceptsAnyStoreID(t *testing.T) {
	e, _ := newEngine(t)
	for id, want := range map[int]string{0: "Loja 0", -3: "Loja -3", math.MinInt32: "Loja -2147483648"} {
		v := mustCreate(t, e, id, "parede", "baixa")
		if v.StoreID != id || v.Store != want {
			t.Errorf("store %d: got id %d label %q, want %q", id, v.StoreID, v.Store, want)
		}
	}
}

func TestEngine_RequesterLengthCountsCharacters(t *testing.T) {
	e, _ := newEngine(t)
	name := strings.Repeat("ã", 100)
	res, err := e.Create(context.Background(), model.RoleManager, workflow.CreateInput{
		StoreID: 1, Description: "x", Priority: "alta", RequestedBy: name,
	})
	if err != nil {
		t.Fatalf("expected 100-character requester to be accepted, got %v", err)
	}
	if res.Ticket.RequestedBy != name {
		t.Errorf("requester not stored verbatim: %q", res.Ticket.RequestedBy)
	}
}

func TestEngine_ListFor(t *testing.T) {
	e, _ := newEngine(t)
	mustCreate(t, e, 1, "x", "alta")
	ctx := context.Background()

	if _, err := e.ListFor(ctx, model.RoleManager, model.RoleInspector); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("gerente reading fiscal listing: expected ErrForbidden, got %v", err)
	}
	if _, err := e.ListFor(ctx, model.RoleAdmin, model.RoleManager); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("admin reading gerente listing: expected ErrForbidden, got %v", err)
	}
	items, err := e.ListFor(ctx, model.RoleInspector, model.RoleInspector)
	if err != nil {
		t.Fatalf("fiscal reading own listing: %v", err)
	}
	if len(items) != 1 || items[0].Color == "" {
		t.Errorf("expected one colored fiscal item, got %+v", items)
	}
}

func TestEngine_UnknownStoreFallsBack(t *testing.T) {
	e, _ := newEngine(t)
	v := mustCreate(t, e, 99, "fachada", "alta")
	if v.Store != "Loja 99" {
		t.Errorf("expected fallback label 'Loja 99', got %q", v.Store)
	}
	items, err := e.List(context.Background(), model.RoleAdmin)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 1 || items[0].Store != "Loja 99" {
		t.Errorf("expected listing to carry fallback label, got %+v", items)
	}
}

func TestEngine_ListInspectorOrderAndColors(t *testing.T) {
	e, _ := newEngine(t)
	low := mustCreate(t, e, 1, "a", "baixa")
	highOld := mustCreate(t, e, 2, "b", "alta")
	medium := mustCreate(t, e, 3, "c", "média")
	highNew := mustCreate(t, e, 4, "d", "alta")

	items, err := e.List(context.Background(), model.RoleInspector)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []struct {
		id    uint64
		color string
	}{
		{highNew.ID, workflow.ColorRed},
		{highOld.ID, workflow.ColorRed},
		{medium.ID, workflow.ColorYellow},
		{low.ID, workflow.ColorGreen},
	}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, w := range want {
		if items[i].ID != w.id || items[i].Color != w.color {
			t.Errorf("position %d: got id=%d cor=%q, want id=%d cor=%q", i, items[i].ID, items[i].Color, w.id, w.color)
		}
	}

	managerItems, err := e.List(context.Background(), model.RoleManager)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if managerItems[0].ID != highNew.ID || managerItems[3].ID != low.ID {
		t.Error("manager view must be newest first")
	}
	if managerItems[0].Color != "" {
		t.Error("manager view must not carry color hints")
	}
}

func TestEngine_MarkViewedIsGuarded(t *testing.T) {
	e, pub := newEngine(t)
	ctx := context.Background()
	v := mustCreate(t, e, 1, "porta", "média")

	res, err := e.MarkViewed(ctx, model.RoleInspector, v.ID)
	if err != nil {
		t.Fatalf("MarkViewed failed: %v", err)
	}
	if !res.Changed || res.Ticket.Status != model.TicketStatusViewed {
		t.Fatalf("expected visualizado, got %q changed=%v", res.Ticket.Status, res.Changed)
	}

	again, err := e.MarkViewed(ctx, model.RoleInspector, v.ID)
	if err != nil {
		t.Fatalf("second MarkViewed failed: %v", err)
	}
	if again.Changed || again.Ticket.Status != model.TicketStatusViewed {
		t.Errorf("expected idempotent visualizado, got %q changed=%v", again.Ticket.Status, again.Changed)
	}

	done, err := e.Conclude(ctx, model.RoleInspector, v.ID)
	if err != nil {
		t.Fatalf("Conclude failed: %v", err)
	}
	if done.Ticket.Status != model.TicketStatusConcluded {
		t.Fatalf("expected concluído, got %q", done.Ticket.Status)
	}

	after, err := e.MarkViewed(ctx, model.RoleInspector, v.ID)
	if err != nil {
		t.Fatalf("MarkViewed on concluded ticket must not fail: %v", err)
	}
	if after.Changed || after.Ticket.Status != model.TicketStatusConcluded {
		t.Errorf("expected concluído to stick, got %q changed=%v", after.Ticket.Status, after.Changed)
	}
	if !after.Ticket.UpdatedAt.Equal(done.Ticket.UpdatedAt) {
		t.Errorf("atualizado_em moved on a no-op: %v -> %v", done.Ticket.UpdatedAt, after.Ticket.UpdatedAt)
	}
	if after.Message != "Chamado já estava concluído" {
		t.Errorf("unexpected message %q", after.Message)
	}

	want := []string{events.TicketCreated, events.TicketViewed, events.TicketConcluded}
	got := pub.names()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEngine_ConcludeIsIdempotent(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	v := mustCreate(t, e, 1, "escada", "alta")

	first, err := e.Conclude(ctx, model.RoleManager, v.ID)
	if err != nil {
		t.Fatalf("Conclude failed: %v", err)
	}
	second, err := e.Conclude(ctx, model.RoleAdmin, v.ID)
	if err != nil {
		t.Fatalf("second Conclude failed: %v", err)
	}
	if second.Changed {
		t.Error("second conclude must be a no-op")
	}
	if !second.Ticket.UpdatedAt.Equal(first.Ticket.UpdatedAt) {
		t.Errorf("atualizado_em changed on no-op conclude")
	}
	if !second.Ticket.CreatedAt.Equal(v.CreatedAt) {
		t.Errorf("criado_em changed: %v -> %v", v.CreatedAt, second.Ticket.CreatedAt)
	}
}

func TestEngine_MarkViewedForbiddenForManager(t *testing.T) {
	e, _ := newEngine(t)
	v := mustCreate(t, e, 1, "porta", "média")
	if _, err := e.MarkViewed(context.Background(), model.RoleManager, v.ID); !errors.Is(err, errs.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestEngine_TransitionsOnUnknownTicket(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	if _, err := e.MarkViewed(ctx, model.RoleInspector, 404); !errors.Is(err, errs.ErrTicketNotFound) {
		t.Errorf("MarkViewed: expected ErrTicketNotFound, got %v", err)
	}
	if _, err := e.Conclude(ctx, model.RoleManager, 404); !errors.Is(err, errs.ErrTicketNotFound) {
		t.Errorf("Conclude: expected ErrTicketNotFound, got %v", err)
	}
	if _, err := e.Get(ctx, model.RoleAdmin, 404); !errors.Is(err, errs.ErrTicketNotFound) {
		t.Errorf("Get: expected ErrTicketNotFound, got %v", err)
	}
}

func TestEngine_AdminEditOverridesConcluded(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	v := mustCreate(t, e, 1, "ar-condicionado", "alta")
	if _, err := e.Conclude(ctx, model.RoleAdmin, v.ID); err != nil {
		t.Fatalf("Conclude failed: %v", err)
	}

	res, err := e.Edit(ctx, model.RoleAdmin, v.ID, workflow.EditInput{
		Description: "ar-condicionado (revisão)", Priority: "Média", Status: "aberto",
	})
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if res.Ticket.Status != model.TicketStatusOpen {
		t.Errorf("expected override to aberto, got %q", res.Ticket.Status)
	}
	if res.Ticket.Priority != model.PriorityMedium {
		t.Errorf("expected priority média, got %q", res.Ticket.Priority)
	}
	if !res.Ticket.CreatedAt.Equal(v.CreatedAt) {
		t.Errorf("criado_em changed on edit")
	}
	if res.Ticket.UpdatedAt.Before(res.Ticket.CreatedAt) {
		t.Errorf("atualizado_em before criado_em")
	}
}

func TestEngine_EditValidationAndPermissions(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	v := mustCreate(t, e, 1, "x", "alta")

	if _, err := e.Edit(ctx, model.RoleManager, v.ID, workflow.EditInput{Description: "y", Priority: "alta", Status: "aberto"}); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("expected ErrForbidden for manager edit, got %v", err)
	}
	if _, err := e.Edit(ctx, model.RoleAdmin, v.ID, workflow.EditInput{Description: "y", Priority: "alta", Status: "fechado"}); !errors.Is(err, errs.ErrInvalidTicket) {
		t.Errorf("expected ErrInvalidTicket for unknown status, got %v", err)
	}
	if _, err := e.Edit(ctx, model.RoleAdmin, 999, workflow.EditInput{Description: "y", Priority: "alta", Status: "aberto"}); !errors.Is(err, errs.ErrTicketNotFound) {
		t.Errorf("expected ErrTicketNotFound, got %v", err)
	}
}

func TestEngine_Delete(t *testing.T) {
	e, pub := newEngine(t)
	ctx := context.Background()
	v := mustCreate(t, e, 1, "x", "baixa")

	if _, err := e.Delete(ctx, model.RoleInspector, v.ID); !errors.Is(err, errs.ErrForbidden) {
		t.Errorf("expected ErrForbidden for inspector delete, got %v", err)
	}
	if _, err := e.Delete(ctx, model.RoleAdmin, v.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := e.Delete(ctx, model.RoleAdmin, v.ID); !errors.Is(err, errs.ErrTicketNotFound) {
		t.Errorf("expected ErrTicketNotFound on repeated delete, got %v", err)
	}
	if names := pub.names(); names[len(names)-1] != events.TicketDeleted {
		t.Errorf("expected last event %s, got %v", events.TicketDeleted, names)
	}
}

func TestEngine_ViewFlags(t *testing.T) {
	e, _ := newEngine(t)
	ctx := context.Background()
	v := mustCreate(t, e, 1, "x", "alta")

	insp, err := e.Get(ctx, model.RoleInspector, v.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !insp.CanMarkViewed || !insp.CanConclude || insp.CanEdit || insp.CanDelete {
		t.Errorf("unexpected inspector flags: %+v", insp)
	}

	if _, err := e.Conclude(ctx, model.RoleAdmin, v.ID); err != nil {
		t.Fatalf("Conclude failed: %v", err)
	}
	adm, err := e.Get(ctx, model.RoleAdmin, v.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if adm.CanConclude || adm.CanMarkViewed || !adm.CanEdit || !adm.CanDelete {
		t.Errorf("unexpected admin flags on concluded ticket: %+v", adm)
	}
}
