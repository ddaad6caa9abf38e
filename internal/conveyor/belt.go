// Package conveyor models the belt animation of a conveyor preview.
package conveyor

import (
	"math"

	"automation-console/backend/pkg/models"
)

// MinVisualSpeed keeps a running belt with speed 0 visibly moving.
const MinVisualSpeed = 1.0

// PatternLength is the distance after which the belt texture repeats.
const PatternLength = 40.0

// Belt accumulates the offset of a belt texture across animation frames.
type Belt struct {
	speed     float64
	direction models.ConveyorDirection
	status    models.ConveyorStatus
	offset    float64
}

// NewBelt creates a belt in the state of c.
func NewBelt(c models.Conveyor) *Belt {
	b := &Belt{}
	b.Apply(c)
	return b
}

// Apply takes the speed, direction and status of c. The offset is kept, so
// a belt that is stopped and restarted continues where it froze.
func (b *Belt) Apply(c models.Conveyor) {
	b.speed = c.Speed
	b.direction = c.Direction
	b.status = c.Status
}

// Moving reports whether frames advance the offset.
func (b *Belt) Moving() bool {
	return b.status == models.ConveyorRunning && b.direction != models.DirectionStopped
}

// Advance moves the belt by one frame of dt seconds and returns the new
// offset. Forward belts only grow the offset and backward belts only shrink
// it; a belt that is not moving keeps it.
func (b *Belt) Advance(dt float64) float64 {
	if !b.Moving() || dt <= 0 {
		return b.offset
	}
	speed := math.Max(b.speed, MinVisualSpeed)
	if b.direction == models.DirectionBackward {
		speed = -speed
	}
	b.offset += speed * dt
	return b.offset
}

// Offset is the accumulated offset.
func (b *Belt) Offset() float64 { return b.offset }

// Phase is the offset folded into [0, PatternLength), the value a renderer
// draws with.
func (b *Belt) Phase() float64 {
	p := math.Mod(b.offset, PatternLength)
	if p < 0 {
		p += PatternLength
	}
	return p
}

// Frame is one sample of a preview.
type Frame struct {
	Index  int     `json:"index"`
	Offset float64 `json:"offset"`
	Phase  float64 `json:"phase"`
}

// Preview samples n frames at fps frames per second starting from the
// belt's current offset.
func (b *Belt) Preview(fps float64, n int) []Frame {
	if fps <= 0 {
		fps = 60
	}
	frames := make([]Frame, 0, max(n, 0))
	for i := 0; i < n; i++ {
		b.Advance(1 / fps)
		frames = append(frames, Frame{Index: i, Offset: b.offset, Phase: b.Phase()})
	}
	return frames
}
