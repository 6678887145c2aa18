package gamepad

const axisMax = 32767

// tracker turns raw joydev snapshots into normalized axes and edge events.
// The last 2*hats axes carry hat positions and are not exposed as axes.
type tracker struct {
	hats    int
	quit    int
	axes    []float64
	hat     [][2]int
	buttons uint32
	count   int
	primed  bool
}

func newTracker(hats, quitButton int) *tracker {
	if hats < 0 {
		hats = 0
	}

	return &tracker{hats: hats, quit: quitButton, hat: make([][2]int, hats)}
}

func (t *tracker) axisCount(raw int) int {
	if n := raw - 2*t.hats; n > 0 {
		return n
	}

	return 0
}

func (t *tracker) update(raw []int, buttons uint32, buttonCount int) []Event {
	var events []Event

	t.count = buttonCount
	n := t.axisCount(len(raw))
	if cap(t.axes) < n {
		t.axes = make([]float64, n)
	}
	t.axes = t.axes[:n]
	for i := 0; i < n; i++ {
		t.axes[i] = normalize(raw[i])
	}

	for h := 0; h < t.hats && n+2*h+1 < len(raw); h++ {
		value := [2]int{sign(raw[n+2*h]), -sign(raw[n+2*h+1])}
		if value != t.hat[h] {
			t.hat[h] = value
			events = append(events, Event{Type: EventHatMotion, ID: h, Value: value})
		}
	}

	// the first snapshot only establishes which buttons are already held
	if !t.primed {
		t.buttons = buttons
		t.primed = true
		return events
	}

	changed := t.buttons ^ buttons
	for b := 0; b < buttonCount && b < 32; b++ {
		mask := uint32(1) << uint(b)
		if changed&mask == 0 {
			continue
		}
		switch {
		case buttons&mask != 0 && b == t.quit:
			events = append(events, Event{Type: EventQuit, ID: b})
		case buttons&mask != 0:
			events = append(events, Event{Type: EventButtonDown, ID: b})
		default:
			events = append(events, Event{Type: EventButtonUp, ID: b})
		}
	}
	t.buttons = buttons

	return events
}

func (t *tracker) axis(i int) float64 {
	if i < 0 || i >= len(t.axes) {
		return 0
	}

	return t.axes[i]
}

func (t *tracker) pressed() map[int]bool {
	held := make(map[int]bool)
	for b := 0; b < t.count && b < 32; b++ {
		if t.buttons&(uint32(1)<<uint(b)) != 0 {
			held[b] = true
		}
	}

	return held
}

func (t *tracker) offCenter() map[int][2]int {
	hats := make(map[int][2]int)
	for h, value := range t.hat {
		if value != [2]int{} {
			hats[h] = value
		}
	}

	return hats
}

func normalize(raw int) float64 {
	v := float64(raw) / axisMax
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}

	return v
}

func sign(v int) int {
	switch {
	case v > axisMax/2:
		return 1
	case v < -axisMax/2:
		return -1
	default:
		return 0
	}
}
