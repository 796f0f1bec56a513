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

// Package dispatch implements the worker pool that drains the global
// run queue: each worker pulls one mailbox at a time and dispatches an
// adaptively-sized batch of its messages before yielding it back,
// grounded in skynet_server.c's skynet_context_message_dispatch and
// the per-worker weight table from skynet_start.c's thread_worker.
package dispatch

// weightTable mirrors skynet_start.c's static `weight[]`: a negative
// entry divides the mailbox length by 2^-w, a zero dispatches the
// whole batch, and a positive entry also divides the batch size by
// 2^w (skynet_server.c's skynet_context_message_dispatch does
// `n >>= weight` regardless of sign). Index selection wraps past the
// end of the table onto its last entry, matching the original's
// clamping behavior.
var weightTable = [32]int{
	-1, -1, -1, -1,
	0, 0, 0, 0,
	1, 1, 1, 1, 1, 1, 1, 1,
	2, 2, 2, 2, 2, 2, 2, 2,
	3, 3, 3, 3, 3, 3, 3, 3,
}

// batchSize computes how many of a mailbox's length queued messages a
// worker should dispatch this turn, given the worker's index among
// the pool (0-based) and the mailbox's current backlog length.
func batchSize(workerIndex, length int) int {
	idx := workerIndex
	if idx < 0 {
		idx = 0
	}
	if idx >= len(weightTable) {
		idx = len(weightTable) - 1
	}
	w := weightTable[idx]
	n := length
	switch {
	case w < 0:
		n = length >> uint(-w)
	case w > 0:
		n = length >> uint(w)
	}
	if n < 1 {
		n = 1
	}
	if n > length {
		n = length
	}
	return n
}
