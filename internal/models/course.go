package models

import (
	"time"

	"github.com/google/uuid"
)

// Course groups lectures and namespaces their artifacts by Code.
type Course struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
