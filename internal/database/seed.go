package database

import (
	"context"
	"fmt"
	"time"

	"github.com/psds-microservice/chamados-service/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SeedUser struct {
	Username string
	Password string
	Role     model.Role
}

// SeedUsers inserts users that do not exist yet and returns how many were added.
func SeedUsers(ctx context.Context, db *gorm.DB, users []SeedUser, hash func(string) (string, error)) (int64, error) {
	var added int64
	for _, u := range users {
		h, err := hash(u.Password)
		if err != nil {
			return added, fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		row := model.User{Username: u.Username, PasswordHash: h, Role: u.Role, Active: true}
		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).
			Create(&row)
		if res.Error != nil {
			return added, fmt.Errorf("seed user %s: %w", u.Username, res.Error)
		}
		added += res.RowsAffected
	}
	return added, nil
}

func sampleTickets() []model.Ticket {
	first := time.Date(2025, 9, 12, 15, 55, 39, 403196000, time.UTC)
	second := time.Date(2025, 9, 13, 19, 9, 40, 644092000, time.UTC)
	third := time.Date(2025, 9, 13, 19, 53, 49, 709166000, time.UTC)
	return []model.Ticket{
		{ID: 1, StoreID: 1, Description: "Ar-condicionado da sala de vendas não está gelando", Priority: model.PriorityHigh, RequestedBy: "Ana Souza", CreatedAt: first},
		{ID: 2, StoreID: 3, Description: "Lâmpada queimada no estoque", Priority: model.PriorityLow, RequestedBy: "Carlos Mendes", CreatedAt: first},
		{ID: 4, StoreID: 7, Description: "Vazamento na pia do banheiro", Priority: model.PriorityMedium, RequestedBy: "Ricardo Oliveira", CreatedAt: first},
		{ID: 6, StoreID: 2, Description: "Teste de funcionamento", Priority: model.PriorityMedium, RequestedBy: "Bruna Pedroso", CreatedAt: second},
		{ID: 7, StoreID: 6, Description: "Manutenção da escada", Priority: model.PriorityMedium, RequestedBy: "Bruna Pedroso", CreatedAt: third},
	}
}

// SeedSampleTickets inserts the demo tickets, skipping ids already present.
func SeedSampleTickets(ctx context.Context, db *gorm.DB) (int64, error) {
	tickets := sampleTickets()
	for i := range tickets {
		tickets[i].Status = model.TicketStatusOpen
		tickets[i].UpdatedAt = tickets[i].CreatedAt
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&tickets)
	if res.Error != nil {
		return 0, fmt.Errorf("seed tickets: %w", res.Error)
	}
	// Explicit ids leave the serial sequence behind.
	if db.Dialector.Name() == "postgres" {
		if err := db.WithContext(ctx).Exec(
			"SELECT setval(pg_get_serial_sequence('chamados', 'id'), (SELECT COALESCE(MAX(id), 1) FROM chamados))",
		).Error; err != nil {
			return res.RowsAffected, fmt.Errorf("reset ticket sequence: %w", err)
		}
	}
	return res.RowsAffected, nil
}
