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

// Package server implements socket.Server over net.Listen/net.ListenPacket:
// the accept side used by tests standing in for a remote syslog collector,
// and the shape a real deployment's own collector would reuse.
package server

import (
	"context"
	"crypto/tls"
	"net"
	"os"
	"sync"

	"github.com/nabbar/actorkit/socket"
	sckcfg "github.com/nabbar/actorkit/socket/config"
)

type server struct {
	cfg sckcfg.Server
	tls *tls.Config
	hdl socket.Handler

	mu sync.Mutex
	ln net.Listener
	pc net.PacketConn
}

// New validates cfg and returns a Server bound to it. tlsCfg is applied to
// stream listeners only (tcp/unix); it is ignored for packet networks
// (udp/unixgram). hdl is called once per accepted connection, or once per
// received datagram for packet networks.
func New(tlsCfg *tls.Config, hdl socket.Handler, cfg sckcfg.Server) (socket.Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hdl == nil {
		return nil, sckcfg.ErrInvalidHandler
	}
	return &server{cfg: cfg, tls: tlsCfg, hdl: hdl}, nil
}

func (s *server) Listen(ctx context.Context) error {
	if s.cfg.Network.IsUDP() {
		return s.listenPacket(ctx)
	}
	return s.listenStream(ctx)
}

func (s *server) listenStream(ctx context.Context) error {
	ln, err := net.Listen(s.cfg.Network.String(), s.cfg.Address)
	if err != nil {
		return err
	}
	if err = s.preparePath(); err != nil {
		_ = ln.Close()
		return err
	}
	if s.tls != nil {
		ln = tls.NewListener(ln, s.tls)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.hdl(conn)
	}
}

func (s *server) listenPacket(ctx context.Context) error {
	pc, err := net.ListenPacket(s.cfg.Network.String(), s.cfg.Address)
	if err != nil {
		return err
	}
	if err = s.preparePath(); err != nil {
		_ = pc.Close()
		return err
	}

	s.mu.Lock()
	s.pc = pc
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()

	buf := make([]byte, 65536)
	for {
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			return err
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		go s.hdl(newPacketContext(pc, addr, payload))
	}
}

// preparePath applies PermFile/GroupPerm to a freshly-created unix/unixgram
// socket file. A no-op for tcp/udp.
func (s *server) preparePath() error {
	switch s.cfg.Network.String() {
	case "unix", "unixgram":
	default:
		return nil
	}
	if s.cfg.PermFile != 0 {
		if err := os.Chmod(s.cfg.Address, s.cfg.PermFile); err != nil {
			return err
		}
	}
	if s.cfg.GroupPerm >= 0 {
		_ = os.Chown(s.cfg.Address, -1, s.cfg.GroupPerm)
	}
	return nil
}

func (s *server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.ln != nil {
		err = s.ln.Close()
		s.ln = nil
	}
	if s.pc != nil {
		if e := s.pc.Close(); e != nil && err == nil {
			err = e
		}
		s.pc = nil
	}
	return err
}
