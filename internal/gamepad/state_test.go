package gamepad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerAxes(t *testing.T) {
	tr := newTracker(1, -1)

	events := tr.update([]int{32767, -32767, 0, 16384, 0, 0}, 0, 12)
	assert.Empty(t, events)

	assert.Equal(t, 4, tr.axisCount(6))
	assert.InDelta(t, 1.0, tr.axis(0), 1e-9)
	assert.InDelta(t, -1.0, tr.axis(1), 1e-9)
	assert.InDelta(t, 0.5, tr.axis(3), 1e-3)
	assert.Equal(t, 0.0, tr.axis(4), "hat axes are not exposed")
	assert.Equal(t, 0.0, tr.axis(-1))
}

func TestTrackerNormalizeClamps(t *testing.T) {
	assert.Equal(t, -1.0, normalize(-32768))
	assert.Equal(t, 1.0, normalize(40000))
}

func TestTrackerButtonEdges(t *testing.T) {
	tr := newTracker(0, -1)

	// buttons held at startup do not produce events
	assert.Empty(t, tr.update(nil, 1<<2, 12))

	events := tr.update(nil, 1<<2|1<<7, 12)
	assert.Equal(t, []Event{{Type: EventButtonDown, ID: 7}}, events)

	assert.Empty(t, tr.update(nil, 1<<2|1<<7, 12), "no edge, no event")

	events = tr.update(nil, 1<<6, 12)
	assert.Equal(t, []Event{
		{Type: EventButtonUp, ID: 2},
		{Type: EventButtonDown, ID: 6},
		{Type: EventButtonUp, ID: 7},
	}, events)
}

func TestTrackerQuitButton(t *testing.T) {
	tr := newTracker(0, 9)
	tr.update(nil, 0, 12)

	events := tr.update(nil, 1<<9, 12)
	assert.Equal(t, []Event{{Type: EventQuit, ID: 9}}, events)

	events = tr.update(nil, 0, 12)
	assert.Equal(t, []Event{{Type: EventButtonUp, ID: 9}}, events)
}

func TestTrackerHatMotion(t *testing.T) {
	tr := newTracker(1, -1)
	tr.update([]int{0, 0, 0, 0}, 0, 4)

	events := tr.update([]int{0, 0, 32767, -32767}, 0, 4)
	assert.Equal(t, []Event{{Type: EventHatMotion, ID: 0, Value: [2]int{1, 1}}}, events)

	events = tr.update([]int{0, 0, 0, 0}, 0, 4)
	assert.Equal(t, []Event{{Type: EventHatMotion, ID: 0, Value: [2]int{0, 0}}}, events)
}

func TestTrackerHeldState(t *testing.T) {
	tr := newTracker(1, -1)
	assert.Empty(t, tr.pressed(), "nothing held before the first poll")

	tr.update([]int{0, 0, -32767, 0}, 1<<2|1<<7|1<<20, 12)

	assert.Equal(t, map[int]bool{2: true, 7: true}, tr.pressed(), "bits past the button count are ignored")
	assert.Equal(t, map[int][2]int{0: {-1, 0}}, tr.offCenter())

	tr.update([]int{0, 0, 0, 0}, 1<<7, 12)
	assert.Equal(t, map[int]bool{7: true}, tr.pressed())
	assert.Empty(t, tr.offCenter())
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "button_down", EventButtonDown.String())
	assert.Equal(t, "event(42)", EventType(42).String())
}
