package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/deepdesert/go/internal/grid"
	"github.com/mcdev12/deepdesert/go/internal/models"
)

// MapEvent is the envelope for every live map update
type MapEvent struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventType represents the type of map event
type EventType string

const (
	EventTypeGridChanged        EventType = "GridChanged"
	EventTypeCatalogChanged     EventType = "CatalogChanged"
	EventTypeStormTargetChanged EventType = "StormTargetChanged"
	EventTypeCountdownTick      EventType = "CountdownTick"
)

// CellView is a cell as rendered to viewers
type CellView struct {
	CellID  models.CellID       `json:"cell_id"`
	Entries []grid.DisplayEntry `json:"entries"`
}

// GridChangedPayload lists rewritten and emptied cells
type GridChangedPayload struct {
	Cells   []CellView      `json:"cells"`
	Removed []models.CellID `json:"removed,omitempty"`
}

// CatalogChangedPayload carries the full catalog after the change
type CatalogChangedPayload struct {
	Kinds   []models.MarkerKind `json:"kinds"`
	Legend  []grid.LegendEntry  `json:"legend"`
	Removed []string            `json:"removed,omitempty"`
}

// StormTargetChangedPayload carries the new storm target
type StormTargetChangedPayload struct {
	Target time.Time `json:"target"`
}

// CountdownTickPayload carries the formatted countdown
type CountdownTickPayload struct {
	Text         string `json:"text"`
	Passed       bool   `json:"passed"`
	RemainingSec int64  `json:"remaining_sec"`
}

// NewMapEvent wraps a payload in an envelope
func NewMapEvent(t EventType, at time.Time, payload any) (*MapEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return &MapEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: at,
		Data:      data,
	}, nil
}

// ParsePayload decodes event data into the payload struct for its type
func ParsePayload(event *MapEvent) (any, error) {
	switch event.Type {
	case EventTypeGridChanged:
		var p GridChangedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventTypeCatalogChanged:
		var p CatalogChangedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventTypeStormTargetChanged:
		var p StormTargetChangedPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case EventTypeCountdownTick:
		var p CountdownTickPayload
		if err := json.Unmarshal(event.Data, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
}
