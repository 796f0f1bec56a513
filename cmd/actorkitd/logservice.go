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

package main

import (
	"github.com/nabbar/actorkit/logger"
	"github.com/nabbar/actorkit/mailbox"
	"github.com/nabbar/actorkit/runtime"
)

const sigHup = 1

// logService is the module launched under the "logservice" name
// (default of spec.md §6), the Go stand-in for skynet's own logger
// service: every TypeText/TypeWarning/TypeError message routed to it
// is written through the process-wide logger.Logger. Its actual
// content and wire protocol are left to the application per spec.md's
// "pluggable log service" Non-goal; this is only enough to give the
// logservice config key and SIGHUP's log-file-reopen behaviour
// somewhere real to land.
type logService struct {
	log logger.Logger
}

func newLogServiceFactory(log logger.Logger) runtime.Factory {
	return func() runtime.Service {
		return &logService{log: log}
	}
}

func (s *logService) Init(ctx *runtime.Context, args string) error {
	return nil
}

func (s *logService) Dispatch(ctx *runtime.Context, msg mailbox.Message) bool {
	switch msg.Type {
	case mailbox.TypeWarning:
		s.log.Warning(string(msg.Data), nil)
	case mailbox.TypeError:
		s.log.Error(string(msg.Data), nil)
	case mailbox.TypeClose:
		return false
	default:
		s.log.Info(string(msg.Data), nil)
	}
	return true
}

func (s *logService) Release(ctx *runtime.Context) {}

// Signal reopens every log file sink on SIGHUP, mirroring the
// original forwarding the signal straight to the logger service.
func (s *logService) Signal(ctx *runtime.Context, sig int) {
	if sig == sigHup {
		_ = s.log.SetOptions(s.log.GetOptions())
	}
}
