package feedback

import (
	"context"
	"fmt"

	"codeberg.org/mutker/robotctl/internal/errors"
	"codeberg.org/mutker/robotctl/internal/metrics"
)

// AudioCommand asks the audio subsystem to start or stop the feedback sound.
type AudioCommand int

const (
	Start AudioCommand = iota
	Stop
)

func (c AudioCommand) String() string {
	switch c {
	case Start:
		return "start"
	case Stop:
		return "stop"
	default:
		return fmt.Sprintf("audio_command(%d)", int(c))
	}
}

// Queue is the ordered channel between the dispatcher and the audio consumer.
// Any number of goroutines may push; one consumer reads C().
type Queue struct {
	ch chan AudioCommand
}

func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan AudioCommand, size)}
}

// Push enqueues cmd, waiting for room until ctx is done.
func (q *Queue) Push(ctx context.Context, cmd AudioCommand) error {
	select {
	case q.ch <- cmd:
		metrics.FeedbackCommand(cmd.String())
		return nil
	case <-ctx.Done():
		return errors.New().Wrap(errors.ErrInterrupted, ctx.Err()).WithData(cmd.String())
	}
}

func (q *Queue) C() <-chan AudioCommand {
	return q.ch
}

func (q *Queue) Len() int {
	return len(q.ch)
}
