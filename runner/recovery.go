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

package runner

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
)

// RecoveryHandler is called by RecoveryCaller whenever a non-nil panic value
// is observed. The default prints caller, value and stack trace to stderr;
// callers that want panics routed through their own logger replace it with
// SetRecoveryHandler.
type RecoveryHandler func(caller string, recovered interface{}, stack []byte, extra []string)

var recoveryHandler RecoveryHandler = defaultRecoveryHandler

// SetRecoveryHandler overrides how RecoveryCaller reports a recovered panic.
// A nil handler restores the default stderr printer.
func SetRecoveryHandler(h RecoveryHandler) {
	if h == nil {
		recoveryHandler = defaultRecoveryHandler
		return
	}
	recoveryHandler = h
}

func defaultRecoveryHandler(caller string, recovered interface{}, stack []byte, extra []string) {
	msg := fmt.Sprintf("recovered panic in %s: %v", caller, recovered)
	if len(extra) > 0 {
		msg += " (" + strings.Join(extra, ", ") + ")"
	}
	fmt.Fprintln(os.Stderr, msg)
	fmt.Fprintln(os.Stderr, string(stack))
}

// RecoveryCaller is meant to be called at the top of a deferred func right
// after recover(): it is a no-op when recovered is nil, and otherwise reports
// the panic through the current RecoveryHandler with the calling site's name
// and any contextual extra strings (e.g. the file path a hook was writing
// to when it panicked).
func RecoveryCaller(caller string, recovered interface{}, extra ...string) {
	if recovered == nil {
		return
	}
	recoveryHandler(caller, recovered, debug.Stack(), extra)
}
