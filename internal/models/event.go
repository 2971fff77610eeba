package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID               string    `bun:"id,pk" json:"id"`
	Name             string    `bun:"name,notnull" json:"name"`
	TotalTickets     int       `bun:"total_tickets,notnull" json:"total_tickets"`
	AvailableTickets int       `bun:"available_tickets,notnull" json:"available_tickets"`
	CreatedAt        time.Time `bun:"created_at,notnull" json:"created_at"`
}

type EventRequest struct {
	Name         string `json:"name"`
	TotalTickets int    `json:"total_tickets"`
}
