package models

import (
	"time"

	"github.com/google/uuid"
)

// StormTarget is the next scheduled Coriolis storm for a map
type StormTarget struct {
	MapID     uuid.UUID `json:"map_id"`
	At        time.Time `json:"next_storm_date"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}
