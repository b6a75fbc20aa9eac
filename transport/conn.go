// Package transport implements the per-call stream connection.
//
// Every invocation owns exactly one connection for its whole life:
//
//	Dial ──► Send(request frame) ──► Receive (reads fed to a protocol.Assembler) ──► Close
//
// Connections are never pooled or shared, so no request id is needed to match a
// response to its request.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/534591395/zoodubbo/protocol"
)

// DefaultReadBufferSize is the size of each stream read.
const DefaultReadBufferSize = 4096

// Dialer opens stream connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Error is a socket-level failure (connect, write or read).
// It is the only failure the client answers with a reconnect.
type Error struct {
	Op   string // "dial", "write" or "read"
	Addr string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Conn is one call's connection.
type Conn struct {
	conn    net.Conn
	addr    string
	readBuf int
	ctx     context.Context
	stop    func() bool
}

// Dial connects to addr. Cancelling ctx later interrupts any blocked Send or Receive.
func Dial(ctx context.Context, d Dialer, addr string, readBufferSize int) (*Conn, error) {
	if readBufferSize <= 0 {
		readBufferSize = DefaultReadBufferSize
	}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &Error{Op: "dial", Addr: addr, Err: err}
	}

	c := &Conn{conn: nc, addr: addr, readBuf: readBufferSize, ctx: ctx}
	c.stop = context.AfterFunc(ctx, func() {
		nc.SetDeadline(time.Now())
	})
	return c, nil
}

// Send writes one complete request frame.
func (c *Conn) Send(frame []byte) error {
	if _, err := c.conn.Write(frame); err != nil {
		return c.wrap("write", err)
	}
	return nil
}

// Receive reads until one complete frame has been assembled and returns it.
// The rest of the system never sees a partial frame.
func (c *Conn) Receive() ([]byte, error) {
	a := protocol.NewAssembler()
	buf := make([]byte, c.readBuf)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			frame, complete, ferr := a.Feed(buf[:n])
			if ferr != nil {
				return nil, &protocol.DecodeError{Reason: "stream", Cause: ferr}
			}
			if complete {
				return frame, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, c.wrap("read", err)
		}
	}
}

// Close releases the connection.
func (c *Conn) Close() error {
	c.stop()
	return c.conn.Close()
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string {
	return c.addr
}

func (c *Conn) wrap(op string, err error) error {
	if ctxErr := c.ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &Error{Op: op, Addr: c.addr, Err: err}
}
