package telemetry

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Recorder stores detection events for later inspection
type Recorder interface {
	Record(ctx context.Context, event *DetectionEvent) error
	Session() uuid.UUID
	Close() error
}

// Repository defines the interface for detection event storage
type Repository interface {
	Insert(event *DetectionEvent) error
	Flush() error
	Close() error
}

// DetectionEvent is one frame in which markers were found
type DetectionEvent struct {
	Timestamp time.Time
	Session   uuid.UUID
	FrameSeq  uint64
	Markers   []Marker
	ImagePath string
}

// Marker is a detected marker id with its corner polygon in pixels
type Marker struct {
	ID      int           `msgpack:"id"`
	Corners [4][2]float32 `msgpack:"corners"`
}

// IDs returns the marker ids in detection order
func (e *DetectionEvent) IDs() []int {
	ids := make([]int, len(e.Markers))
	for i, m := range e.Markers {
		ids[i] = m.ID
	}

	return ids
}
