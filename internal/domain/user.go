package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleTrader     = "trader"
	RoleSubscriber = "subscriber"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsTrader reports whether the user may publish signals.
func (u *User) IsTrader() bool {
	return u.Role == RoleTrader
}

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}
