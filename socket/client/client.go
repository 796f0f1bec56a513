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

// Package client implements socket.Client over net.Dial: a small, reconnecting
// wrapper used by logger/hooksyslog to forward entries to a remote collector
// without dragging in a full socket server/reactor stack for the write side.
package client

import (
	"context"
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nabbar/actorkit/socket"
	sckcfg "github.com/nabbar/actorkit/socket/config"
)

type client struct {
	cfg sckcfg.Client
	log *logrus.Logger

	mu   sync.Mutex
	conn net.Conn
}

// New validates cfg and returns an unconnected socket.Client; Connect dials
// on first use. log may be nil: dial and reconnect errors are then simply
// returned to the caller without being logged.
func New(cfg sckcfg.Client, log *logrus.Logger) (socket.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &client{cfg: cfg, log: log}, nil
}

func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	dialer := net.Dialer{Timeout: c.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, c.cfg.Network.String(), c.cfg.Address)
	if err != nil {
		if c.log != nil {
			c.log.WithError(err).WithField("address", c.cfg.Address).Error("socket client dial failed")
		}
		return err
	}

	if tc := c.cfg.TLS.TLSConfig(); tc != nil && !c.cfg.Network.IsUDP() {
		conn = tlsClient(conn, tc)
	}

	c.conn = conn
	return nil
}

func (c *client) Write(p []byte) (int, error) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		if err := c.Connect(context.Background()); err != nil {
			return 0, err
		}
		c.mu.Lock()
		conn = c.conn
		c.mu.Unlock()
	}

	n, err := conn.Write(p)
	if err != nil {
		// one reconnect-and-retry, mirroring the aggregator's own
		// write-failure-triggers-reconnect expectations.
		if cerr := c.Connect(context.Background()); cerr != nil {
			return n, err
		}
		c.mu.Lock()
		conn = c.conn
		c.mu.Unlock()
		return conn.Write(p)
	}
	return n, nil
}

func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
