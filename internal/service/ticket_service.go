package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/psds-microservice/chamados-service/internal/errs"
	"github.com/psds-microservice/chamados-service/internal/model"
	"gorm.io/gorm"
)

// TicketServicer is the persistence contract used by the workflow engine.
type TicketServicer interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	List(ctx context.Context, order model.ListOrder) ([]model.Ticket, error)
	UpdateStatus(ctx context.Context, id uint64, to model.TicketStatus, guard model.StatusGuard) (*model.Ticket, bool, error)
	FullEdit(ctx context.Context, id uint64, edit model.TicketEdit) (*model.Ticket, error)
	Delete(ctx context.Context, id uint64) error
}

// priorityOrder is "CASE LOWER(TRIM(prioridade)) WHEN 'alta' THEN 1 ... ELSE 4 END".
var priorityOrder = func() string {
	var b strings.Builder
	b.WriteString("CASE LOWER(TRIM(prioridade))")
	for _, r := range model.PriorityRanks {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", r.Priority, r.Rank)
	}
	fmt.Fprintf(&b, " ELSE %d END", model.PriorityRankOther)
	return b.String()
}()

type TicketService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTicketService(db *gorm.DB) *TicketService {
	return &TicketService{db: db, now: time.Now}
}

// WithClock replaces the time source used for criado_em/atualizado_em.
func (s *TicketService) WithClock(now func() time.Time) *TicketService {
	s.now = now
	return s
}

func (s *TicketService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create inserts t as a new open ticket; ID and timestamps are filled in.
func (s *TicketService) Create(ctx context.Context, t *model.Ticket) error {
	now := s.timestamp()
	t.ID = 0
	t.Status = model.TicketStatusOpen
	t.CreatedAt = now
	t.UpdatedAt = now
	return errors.Wrap(s.db.WithContext(ctx).Create(t).Error, "create ticket")
}

func (s *TicketService) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	return s.get(s.db.WithContext(ctx), id)
}

func (s *TicketService) get(tx *gorm.DB, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	if err := tx.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrTicketNotFound
		}
		return nil, errors.Wrapf(err, "get ticket %d", id)
	}
	return &t, nil
}

func (s *TicketService) List(ctx context.Context, order model.ListOrder) ([]model.Ticket, error) {
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	if order == model.OrderPriority {
		tx = tx.Order(priorityOrder)
	}
	var items []model.Ticket
	if err := tx.Order("criado_em DESC").Order("id DESC").Find(&items).Error; err != nil {
		return nil, errors.Wrapf(err, "list tickets (%s)", order)
	}
	return items, nil
}

// UpdateStatus moves ticket id to status to. Under GuardNotConcluded a ticket
// that is concluded, or already in to, is left untouched and returned with
// changed == false.
func (s *TicketService) UpdateStatus(ctx context.Context, id uint64, to model.TicketStatus, guard model.StatusGuard) (*model.Ticket, bool, error) {
	var (
		out     *model.Ticket
		changed bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.get(tx, id); err != nil {
			return err
		}
		q := tx.Model(&model.Ticket{}).Where("id = ?", id)
		if guard == model.GuardNotConcluded {
			q = q.Where("status NOT IN ?", []string{string(model.TicketStatusConcluded), string(to)})
		}
		res := q.Updates(map[string]interface{}{
			"status":        to,
			"atualizado_em": s.timestamp(),
		})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "update status of ticket %d", id)
		}
		changed = res.RowsAffected > 0
		// Re-read either way: a concurrent writer may have moved the row
		// between the first read and the guarded update.
		var err error
		out, err = s.get(tx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return out, changed, nil
}

// FullEdit overwrites description, priority and status regardless of the
// current state.
func (s *TicketService) FullEdit(ctx context.Context, id uint64, edit model.TicketEdit) (*model.Ticket, error) {
	var out *model.Ticket
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.get(tx, id); err != nil {
			return err
		}
		res := tx.Model(&model.Ticket{}).Where("id = ?", id).Updates(map[string]interface{}{
			"descricao":     edit.Description,
			"prioridade":    edit.Priority,
			"status":        edit.Status,
			"atualizado_em": s.timestamp(),
		})
		if res.Error != nil {
			return errors.Wrapf(res.Error, "edit ticket %d", id)
		}
		var err error
		out, err = s.get(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *TicketService) Delete(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&model.Ticket{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete ticket %d", id)
	}
	if res.RowsAffected == 0 {
		return errs.ErrTicketNotFound
	}
	return nil
}
