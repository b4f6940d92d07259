package model

import (
	"time"

	"github.com/google/uuid"
)

// Department scopes ingredients, pricing configuration, and sales.
// Reference data — created by administrators, never touched by the engine.
type Department struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"uniqueIndex;not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
