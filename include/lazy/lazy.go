// Package lazy provides a cell whose value is computed by the first caller that needs it and shared with every later
// caller.
package lazy

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
)

// ErrReentrant is returned by [Value.Get] when it's called by the resolver of the same Value, which would otherwise
// wait for itself forever.
var ErrReentrant = errors.New("value was accessed by its own resolver")

var errExited = errors.New("resolver exited without returning")

//go:generate go run golang.org/x/tools/cmd/stringer -type State

// State is the resolution state of a [Value].
type State int32

// The list of all states. A Value only ever moves forwards through them.
const (
	Unresolved State = iota
	Resolving
	Resolved
)

// Value is a value which is computed at most once, on the first call to Get.
// The zero Value isn't usable; construct one with [New].
type Value[T any] struct {
	resolve func() (T, error)

	mu    sync.Mutex
	state State
	owner int64         // goroutine running resolve
	done  chan struct{} // closed once state is Resolved
	val   T
	err   error
}

// New returns a Value which will be computed by calling resolve.
func New[T any](resolve func() (T, error)) *Value[T] {
	return &Value[T]{resolve: resolve, owner: -1}
}

// Get returns the value, calling the resolver if this is the first call.
// Concurrent callers wait for the first call to finish and then observe the same result. A failed resolution isn't
// retried: every call returns the same error. If the resolver panics then the panic is returned as an error.
func (v *Value[T]) Get() (T, error) {
	v.mu.Lock()
	switch v.state {
	case Resolved:
		v.mu.Unlock()
		return v.val, v.err
	case Resolving:
		if v.owner == goroutineID() {
			v.mu.Unlock()
			var zero T
			return zero, ErrReentrant
		}
		done := v.done
		v.mu.Unlock()
		<-done
		return v.val, v.err
	}
	v.state = Resolving
	v.owner = goroutineID()
	v.done = make(chan struct{})
	v.mu.Unlock()

	// err stays errExited if the resolver calls runtime.Goexit, which can't be recovered.
	var val T
	err := errExited
	defer func() {
		v.mu.Lock()
		v.val, v.err = val, err
		v.state = Resolved
		v.owner = -1
		close(v.done)
		v.mu.Unlock()
	}()
	val, err = v.run()
	return val, err
}

func (v *Value[T]) run() (val T, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rErr, ok := r.(error); ok {
				err = fmt.Errorf("resolver panicked: %w", rErr)
			} else {
				err = fmt.Errorf("resolver panicked: %v", r)
			}
		}
	}()
	return v.resolve()
}

// State returns the current state of the value.
func (v *Value[T]) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID returns the ID of the calling goroutine, parsed from the header of its stack trace.
func goroutineID() int64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		panic(fmt.Sprintf("lazy: can't parse goroutine ID from %q", b))
	}
	return id
}
