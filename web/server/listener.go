package server

import (
	"errors"
	"net"
	"sync"
)

// LimitListener is a net.Listener that bounds the number of open connections.
// Accept blocks while the limit is reached, until a connection is closed.
type LimitListener struct {
	net.Listener
	sem       chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewLimitListener returns a listener that accepts at most n simultaneous
// connections from ln.
func NewLimitListener(ln net.Listener, n int) *LimitListener {
	return &LimitListener{
		Listener: ln,
		sem:      make(chan struct{}, n),
		done:     make(chan struct{}),
	}
}

// Accept waits for a free connection slot, and then for the next connection.
func (ln *LimitListener) Accept() (net.Conn, error) {
	select {
	case ln.sem <- struct{}{}:
	case <-ln.done:
		return nil, net.ErrClosed
	}

	conn, err := ln.Listener.Accept()
	if err != nil {
		<-ln.sem
		return nil, err //nolint:wrapcheck // Transparent wrapper.
	}

	return &limitConn{Conn: conn, release: func() { <-ln.sem }}, nil
}

// Close closes the underlying listener, and unblocks pending Accept calls.
func (ln *LimitListener) Close() error {
	err := ln.Listener.Close()
	ln.closeOnce.Do(func() { close(ln.done) })
	return err //nolint:wrapcheck // Transparent wrapper.
}

type limitConn struct {
	net.Conn
	releaseOnce sync.Once
	release     func()
}

func (c *limitConn) Close() error {
	err := c.Conn.Close()
	c.releaseOnce.Do(c.release)
	return err //nolint:wrapcheck // Transparent wrapper.
}

// CloseWrite shuts down the writing side of the connection, if supported.
func (c *limitConn) CloseWrite() error {
	if cw, ok := c.Conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite() //nolint:wrapcheck // Transparent wrapper.
	}
	return errors.ErrUnsupported
}
