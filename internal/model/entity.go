package model

import (
	"strings"
	"time"
)

type TicketStatus string

const (
	TicketStatusOpen      TicketStatus = "aberto"
	TicketStatusViewed    TicketStatus = "visualizado"
	TicketStatusConcluded TicketStatus = "concluído"
)

// Valid reports whether s is one of the known lifecycle states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusViewed, TicketStatusConcluded:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "alta"
	PriorityMedium Priority = "média"
	PriorityLow    Priority = "baixa"
)

// PriorityRanks orders priorities for the inspector view. Anything absent
// from the table ranks as PriorityRankOther.
var PriorityRanks = []struct {
	Priority Priority
	Rank     int
}{
	{PriorityHigh, 1},
	{PriorityMedium, 2},
	{PriorityLow, 3},
}

const PriorityRankOther = 4

// NormalizePriority trims and lower-cases p so "Alta " and "alta" compare equal.
func NormalizePriority(p string) Priority {
	return Priority(strings.ToLower(strings.TrimSpace(p)))
}

// Rank returns the sort rank of p, case-insensitively.
func (p Priority) Rank() int {
	n := NormalizePriority(string(p))
	for _, r := range PriorityRanks {
		if r.Priority == n {
			return r.Rank
		}
	}
	return PriorityRankOther
}

// Valid reports whether p is one of alta, média or baixa (any case).
func (p Priority) Valid() bool {
	return p.Rank() != PriorityRankOther
}

type Role string

const (
	RoleManager   Role = "gerente"
	RoleInspector Role = "fiscal"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleInspector, RoleAdmin:
		return true
	}
	return false
}

// ListOrder selects how the ticket store sorts a listing.
type ListOrder int

const (
	OrderRecency ListOrder = iota
	OrderPriority
)

func (o ListOrder) String() string {
	if o == OrderPriority {
		return "priority_then_recency"
	}
	return "recency"
}

// StatusGuard restricts a status update to tickets in an eligible state.
type StatusGuard int

const (
	// GuardNotConcluded skips the write when the ticket is concluded or
	// already in the target status.
	GuardNotConcluded StatusGuard = iota
	// GuardNone writes unconditionally.
	GuardNone
)

// RequestedByMaxLen is the width of solicitado_por in characters.
const RequestedByMaxLen = 100

type Ticket struct {
	ID          uint64       `gorm:"primaryKey" json:"id"`
	StoreID     int          `gorm:"column:loja_id;not null" json:"loja_id"`
	Description string       `gorm:"column:descricao;type:text;not null" json:"descricao"`
	Priority    Priority     `gorm:"column:prioridade;type:varchar(10);not null" json:"prioridade"`
	Status      TicketStatus `gorm:"column:status;type:varchar(20);not null;default:aberto" json:"status"`
	RequestedBy string       `gorm:"column:solicitado_por;type:varchar(100);not null" json:"solicitado_por"`

	CreatedAt time.Time `gorm:"column:criado_em" json:"criado_em"`
	UpdatedAt time.Time `gorm:"column:atualizado_em" json:"atualizado_em"`
}

func (Ticket) TableName() string { return "chamados" }

// TicketEdit carries the fields an administrator may overwrite.
type TicketEdit struct {
	Description string
	Priority    Priority
	Status      TicketStatus
}

type User struct {
	ID           uint64 `gorm:"primaryKey"`
	Username     string `gorm:"type:varchar(50);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password;type:varchar(200);not null"`
	Role         Role   `gorm:"column:papel;type:varchar(20);not null"`
	Active       bool   `gorm:"column:ativo;default:true"`
}

func (User) TableName() string { return "usuarios" }
