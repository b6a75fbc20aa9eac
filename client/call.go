package client

import (
	"context"
	"sync"

	"github.com/534591395/zoodubbo/message"
	"github.com/534591395/zoodubbo/registry"
)

type callState int

const (
	stateResolving callState = iota
	stateConnecting
	stateSending
	stateAccumulating
	stateClassifying
	stateReconnecting
	stateResolved
	stateRejected
)

var stateNames = [...]string{
	stateResolving:    "resolving",
	stateConnecting:   "connecting",
	stateSending:      "sending",
	stateAccumulating: "accumulating",
	stateClassifying:  "classifying",
	stateReconnecting: "reconnecting",
	stateResolved:     "resolved",
	stateRejected:     "rejected",
}

func (s callState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// pendingCall is the per-invocation state. It is owned by a single goroutine.
type pendingCall struct {
	inv       *message.Invocation
	frame     []byte // Encoded once, resent unchanged on reconnect
	state     callState
	fromCache bool
	attempts  int // Reconnect cycles so far
	endpoint  *registry.Endpoint
}

func (pc *pendingCall) resolve(result message.Result) message.Outcome {
	pc.state = stateResolved
	return message.Outcome{Result: result}
}

func (pc *pendingCall) reject(err error) message.Outcome {
	pc.state = stateRejected
	return message.Outcome{Err: err}
}

// Call is an invocation in flight. It settles exactly once.
type Call struct {
	Path   string
	Method string

	once    sync.Once
	done    chan struct{}
	outcome message.Outcome
}

func newCall(path, method string) *Call {
	return &Call{Path: path, Method: method, done: make(chan struct{})}
}

func (c *Call) settle(out message.Outcome) {
	c.once.Do(func() {
		c.outcome = out
		close(c.done)
	})
}

// Done is closed when the call settles.
func (c *Call) Done() <-chan struct{} { return c.done }

// Outcome returns the settled outcome; it blocks until Done is closed.
func (c *Call) Outcome() message.Outcome {
	<-c.done
	return c.outcome
}

// Wait blocks until the call settles or ctx ends.
func (c *Call) Wait(ctx context.Context) (message.Result, error) {
	select {
	case <-c.done:
		return c.outcome.Result, c.outcome.Err
	case <-ctx.Done():
		return message.Result{}, ctx.Err()
	}
}
