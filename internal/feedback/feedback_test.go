package feedback

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *manualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	return c.now
}

// Timer never fires; tests drive the scheduler through RunDue
func (c *manualClock) Timer(time.Duration) (<-chan time.Time, func() bool) {
	return nil, func() bool { return true }
}

func drain(q *Queue) []AudioCommand {
	var out []AudioCommand
	for {
		select {
		case cmd := <-q.C():
			out = append(out, cmd)
		default:
			return out
		}
	}
}

func newDispatcher(delay time.Duration) (*Dispatcher, *Queue, *Scheduler, *manualClock) {
	clock := &manualClock{now: time.Unix(1700000000, 0)}
	queue := NewQueue(16)
	scheduler := NewScheduler(clock)

	return NewDispatcher(queue, scheduler, delay, logger.Nop()), queue, scheduler, clock
}

func TestDetectionStartThenStop(t *testing.T) {
	ctx := context.Background()
	d, queue, sched, clock := newDispatcher(2 * time.Second)

	require.NoError(t, d.OnDetection(ctx, 1))

	assert.Equal(t, []AudioCommand{Start}, drain(queue), "start is pushed immediately")
	assert.Equal(t, 1, sched.Pending())

	assert.Zero(t, sched.RunDue(ctx, clock.Advance(2*time.Second-time.Millisecond)))
	assert.Empty(t, drain(queue), "no stop before the delay")

	assert.Equal(t, 1, sched.RunDue(ctx, clock.Advance(2*time.Millisecond)))
	assert.Equal(t, []AudioCommand{Stop}, drain(queue))
	assert.Zero(t, sched.Pending())
}

func TestEmptyDetectionIgnored(t *testing.T) {
	d, queue, sched, _ := newDispatcher(time.Second)

	require.NoError(t, d.OnDetection(context.Background(), 0))
	assert.Zero(t, queue.Len())
	assert.Zero(t, sched.Pending())
}

func TestOverlappingDetectionsScheduleIndependentStops(t *testing.T) {
	ctx := context.Background()
	d, queue, sched, clock := newDispatcher(2 * time.Second)

	require.NoError(t, d.OnDetection(ctx, 1))
	clock.Advance(500 * time.Millisecond)
	require.NoError(t, d.OnDetection(ctx, 3))
	assert.Equal(t, []AudioCommand{Start, Start}, drain(queue))
	assert.Equal(t, 2, sched.Pending())

	// the first stop lands while the second detection is still in its window
	assert.Equal(t, 1, sched.RunDue(ctx, clock.Advance(1500*time.Millisecond)))
	assert.Equal(t, []AudioCommand{Stop}, drain(queue))

	assert.Equal(t, 1, sched.RunDue(ctx, clock.Advance(500*time.Millisecond)))
	assert.Equal(t, []AudioCommand{Stop}, drain(queue))
}

func TestSchedulerOrder(t *testing.T) {
	ctx := context.Background()
	clock := &manualClock{now: time.Unix(0, 0)}
	s := NewScheduler(clock)

	var order []string
	record := func(name string) func(context.Context) {
		return func(context.Context) { order = append(order, name) }
	}
	s.Schedule(3*time.Second, record("c"))
	s.Schedule(time.Second, record("a"))
	s.Schedule(3*time.Second, record("d"))
	s.Schedule(2*time.Second, record("b"))

	assert.Equal(t, 4, s.RunDue(ctx, clock.Advance(10*time.Second)))
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)
}

func TestSchedulerRunWallClock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewScheduler(nil)
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	fired := make(chan time.Time, 1)
	start := time.Now()
	s.Schedule(20*time.Millisecond, func(context.Context) { fired <- time.Now() })

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 20*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task never ran")
	}

	cancel()
	<-done
}

func TestQueuePushCanceled(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.Push(context.Background(), Start))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Push(ctx, Stop)
	require.Error(t, err)
	assert.Equal(t, errors.KindInterrupted, errors.KindOf(err))
	assert.Equal(t, 1, q.Len())
}

type fakePlayer struct {
	mu    sync.Mutex
	calls []string
	fail  error
}

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "play")
	return p.fail
}

func (p *fakePlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "stop")
	return nil
}

func (p *fakePlayer) snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func TestConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	q := NewQueue(4)
	player := &fakePlayer{fail: stderrors.New("gpio busy")}

	require.NoError(t, q.Push(ctx, Start))
	require.NoError(t, q.Push(ctx, Stop))

	done := make(chan struct{})
	go func() {
		Consume(ctx, q, player, logger.Nop())
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(player.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, []string{"play", "stop", "stop"}, player.snapshot(), "player is silenced on exit")
}

func TestAudioCommandString(t *testing.T) {
	assert.Equal(t, "start", Start.String())
	assert.Equal(t, "stop", Stop.String())
	assert.Equal(t, "audio_command(9)", AudioCommand(9).String())
}
