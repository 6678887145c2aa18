package errors

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Kind classifies a failure into the fault taxonomy used by the control loops.
type Kind int

const (
	KindUnknownFault Kind = iota
	KindDeviceUnavailable
	KindTransientFrame
	KindActuatorWrite
	KindInterrupted
)

func (k Kind) String() string {
	switch k {
	case KindDeviceUnavailable:
		return "device_unavailable"
	case KindTransientFrame:
		return "transient_frame"
	case KindActuatorWrite:
		return "actuator_write"
	case KindInterrupted:
		return "interrupted"
	default:
		return "unknown_fault"
	}
}

// KindOf maps err to its taxonomy kind. The outermost taxonomy code in the
// chain wins; context cancellation counts as an interruption.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknownFault
	}

	for e := err; e != nil; {
		var coded Error
		if !As(e, &coded) {
			break
		}
		switch coded.Code() {
		case ErrDeviceUnavailable:
			return KindDeviceUnavailable
		case ErrTransientFrame:
			return KindTransientFrame
		case ErrActuatorWrite:
			return KindActuatorWrite
		case ErrInterrupted:
			return KindInterrupted
		case ErrUnknownFault:
			return KindUnknownFault
		}
		e = coded.Unwrap()
	}

	if Is(err, context.Canceled) || Is(err, context.DeadlineExceeded) {
		return KindInterrupted
	}

	return KindUnknownFault
}

// PanicData is attached to errors built from a recovered panic.
type PanicData struct {
	Value any
	Stack string
}

func (p PanicData) String() string {
	return fmt.Sprintf("panic: %v", p.Value)
}

// FromPanic turns a recovered panic value into an unknown_fault error.
func FromPanic(v any) Error {
	data := PanicData{Value: v, Stack: string(debug.Stack())}
	if err, ok := v.(error); ok {
		return &appError{code: ErrUnknownFault, err: err, data: data}
	}

	return &appError{code: ErrUnknownFault, data: data}
}
