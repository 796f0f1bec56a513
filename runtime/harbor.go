/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
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

package runtime

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	libptc "github.com/nabbar/actorkit/network/protocol"
	"github.com/nabbar/actorkit/socket"
	sckcfg "github.com/nabbar/actorkit/socket/config"
	scksrv "github.com/nabbar/actorkit/socket/server"
	"github.com/nabbar/actorkit/wire"
)

// harborListen, when non-empty, is the tcp address this node accepts
// inbound cluster frames on -- the Go side of lua-cluster.c's listening
// half. Routing a decoded Request to a local service is left to the
// caller this package doesn't have (skynet_harbor.c's remote dispatch
// table is out of scope, spec.md §Open Questions #3); this is only the
// accept-and-decode extension point, wired to a real listener rather
// than left as an unreachable struct.
func (r *Runtime) serveHarbor(ctx context.Context) error {
	if r.settings.HarborListen == "" {
		return nil
	}

	cfg := sckcfg.Server{
		Network: libptc.NetworkTCP,
		Address: r.settings.HarborListen,
	}

	srv, err := scksrv.New(nil, r.handleHarborConn, cfg)
	if err != nil {
		return fmt.Errorf("runtime: harbor listen %q: %w", r.settings.HarborListen, err)
	}
	r.harbor = srv

	if err := srv.Listen(ctx); err != nil && ctx.Err() == nil {
		r.log.Error(fmt.Sprintf("harbor listener on %q stopped", r.settings.HarborListen), nil, err)
		return err
	}
	return nil
}

// handleHarborConn decodes one cluster frame per read and logs a
// decode failure at Error, matching spec.md's "Error for decode/socket
// failures" ambient-logging promise for the harbor accept path.
func (r *Runtime) handleHarborConn(c socket.Context) {
	defer func() { _ = c.Close() }()

	var szBuf [2]byte
	for {
		if _, err := io.ReadFull(c, szBuf[:]); err != nil {
			return
		}
		size := binary.BigEndian.Uint16(szBuf[:])
		body := make([]byte, size)
		if _, err := io.ReadFull(c, body); err != nil {
			r.log.Error("harbor: short frame body", nil, err)
			return
		}

		req, err := wire.DecodeRequest(body)
		if err != nil {
			r.log.Error("harbor: malformed cluster frame", nil, err)
			continue
		}
		r.log.Debug(fmt.Sprintf("harbor: decoded frame addr=%d name=%q session=%d trace=%q", req.Addr, req.Name, req.Session, req.TraceTag), nil)
	}
}
