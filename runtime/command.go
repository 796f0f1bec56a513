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
	"fmt"
	"strconv"
	"strings"

	"github.com/nabbar/actorkit/errors"
	"github.com/nabbar/actorkit/handle"
)

var ErrBadCommand = errors.New(120, "runtime: malformed command")

// Command runs one line of the text command surface a service issues
// through its Context on behalf of skynet_server.c's cmd_funcs table:
// TIMEOUT, REG, QUERY, NAME, EXIT, KILL, LAUNCH, GETENV, SETENV,
// STARTTIME, ABORT, MONITOR, STAT, LOGON, LOGOFF and SIGNAL. caller is
// the handle issuing the command (its own context), matching the
// "self" argument skynet_command takes.
func (r *Runtime) Command(caller handle.Handle, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", ErrBadCommand
	}
	verb, rest := fields[0], fields[1:]

	switch strings.ToUpper(verb) {
	case "TIMEOUT":
		return r.cmdTimeout(caller, rest)
	case "REG":
		return r.cmdReg(caller, rest)
	case "QUERY":
		return r.cmdQuery(rest)
	case "NAME":
		return r.cmdName(rest)
	case "LAUNCH":
		return r.cmdLaunch(rest)
	case "KILL", "EXIT":
		return r.cmdKill(rest)
	case "GETENV":
		return r.cmdGetenv(rest)
	case "SETENV":
		return r.cmdSetenv(rest)
	case "STARTTIME":
		return strconv.FormatUint(uint64(r.wheel.Current()), 10), nil
	case "ABORT":
		return "", r.cmdAbort()
	case "STAT":
		return r.cmdStat(), nil
	case "MONITOR", "LOGON", "LOGOFF", "SIGNAL":
		// Accepted for protocol completeness; these are advisory in this
		// port and have no additional state to report.
		return "", nil
	default:
		return "", fmt.Errorf("%w: unknown verb %q", ErrBadCommand, verb)
	}
}

func (r *Runtime) cmdTimeout(caller handle.Handle, args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrBadCommand
	}
	ticks, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	session := r.newTimeout(caller, ticks)
	return strconv.FormatInt(int64(session), 10), nil
}

func (r *Runtime) cmdReg(caller handle.Handle, args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrBadCommand
	}
	if err := r.services.Bind(args[0], caller); err != nil {
		return "", err
	}
	return args[0], nil
}

func (r *Runtime) cmdQuery(args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrBadCommand
	}
	h, ok := r.services.FindName(args[0])
	if !ok {
		return "", handle.ErrNotFound
	}
	return h.String(), nil
}

func (r *Runtime) cmdName(args []string) (string, error) {
	if len(args) != 2 {
		return "", ErrBadCommand
	}
	h, err := handle.Parse(args[1])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	if err := r.services.Bind(args[0], h); err != nil {
		return "", err
	}
	return args[0], nil
}

func (r *Runtime) cmdLaunch(args []string) (string, error) {
	if len(args) < 1 {
		return "", ErrBadCommand
	}
	module := args[0]
	launchArgs := strings.Join(args[1:], " ")
	h, err := r.launch(module, launchArgs)
	if err != nil {
		return "", err
	}
	return h.String(), nil
}

// cmdKill retires the target immediately, the way skynet_context_kill
// does: a kill doesn't wait for the mailbox to drain through the
// ordinary dispatch path (an idle mailbox would never be picked up to
// run its Release callback), it removes the registry slot and calls
// Release right away so the handle stops existing synchronously with
// the command returning.
func (r *Runtime) cmdKill(args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrBadCommand
	}
	h, err := handle.Parse(args[0])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	e, err := r.services.Retire(h)
	if err != nil {
		return "", err
	}
	e.box.MarkRelease(r.queue)
	e.svc.Release(&Context{rt: r, h: h})
	return "", nil
}

func (r *Runtime) cmdGetenv(args []string) (string, error) {
	if len(args) != 1 {
		return "", ErrBadCommand
	}
	v, ok := r.env.Get(args[0])
	if !ok {
		return "", nil
	}
	return v, nil
}

func (r *Runtime) cmdSetenv(args []string) (string, error) {
	if len(args) != 2 {
		return "", ErrBadCommand
	}
	if err := r.env.Set(args[0], args[1]); err != nil {
		return "", err
	}
	return "", nil
}

func (r *Runtime) cmdAbort() error {
	r.queue.Close()
	return nil
}

func (r *Runtime) cmdStat() string {
	pipeCommands, direct := r.react.Stats()
	return fmt.Sprintf("service=%d pipe=%d direct=%d", r.services.Len(), pipeCommands, direct)
}
