/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package socket declares the Client contract shared by the socket/client and
// socket/config subpackages: a reconnectable network endpoint used by
// logger/hooksyslog to forward entries to a remote syslog collector.
package socket

import (
	"context"
	"io"
)

// Client is a reconnectable network endpoint: Connect (re)dials, Write sends
// a single record, Close releases the underlying connection.
type Client interface {
	Connect(ctx context.Context) error
	Write(p []byte) (n int, err error)
	Close() error
}

// Context is one accepted connection (or, for packet networks, one inbound
// datagram) handed to a Server's Handler.
type Context interface {
	io.ReadWriteCloser
}

// Handler processes a single Context. The server closes the connection once
// Handler returns if the handler has not already done so.
type Handler func(c Context)

// Server accepts connections or datagrams on one endpoint and dispatches
// each to a Handler.
type Server interface {
	// Listen blocks, accepting and dispatching until ctx is done or Close is
	// called.
	Listen(ctx context.Context) error

	// Close stops Listen and releases the listening socket.
	Close() error
}
