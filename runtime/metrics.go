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

import "github.com/prometheus/client_golang/prometheus"

// Metrics mirrors the STAT command (command.go's cmdStat) as
// Prometheus gauges/counters instead of a text line, sampled on the
// same Monitor sweep that drives sampleHostStats.
var (
	metricMailboxDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "actorkit",
		Subsystem: "mailbox",
		Name:      "queue_depth",
		Help:      "Mailboxes currently queued on the global run queue.",
	})
	metricWheelTicks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "actorkit",
		Subsystem: "timer",
		Name:      "wheel_ticks_total",
		Help:      "Timing wheel tick counter.",
	})
	metricEndlessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "actorkit",
		Subsystem: "monitor",
		Name:      "endless_detected_total",
		Help:      "Services the watchdog has flagged as stuck dispatching a message.",
	})
	metricSocketPipeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "actorkit",
		Subsystem: "reactor",
		Name:      "pipe_bytes_total",
		Help:      "Commands routed through the reactor's control channel.",
	})
	metricSocketDirectWrites = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "actorkit",
		Subsystem: "reactor",
		Name:      "direct_writes_total",
		Help:      "Sends that took the direct-write fast path instead of the control channel.",
	})
)

func init() {
	prometheus.MustRegister(
		metricMailboxDepth,
		metricWheelTicks,
		metricEndlessTotal,
		metricSocketPipeBytes,
		metricSocketDirectWrites,
	)
}

// sampleMetrics refreshes every gauge from its live source and is
// called from the same Monitor.SetStats hook as sampleHostStats.
func (r *Runtime) sampleMetrics() {
	metricMailboxDepth.Set(float64(r.queue.Len()))
	metricWheelTicks.Set(float64(r.wheel.Current()))
	pipeBytes, directWrites := r.react.Stats()
	metricSocketPipeBytes.Set(float64(pipeBytes))
	metricSocketDirectWrites.Set(float64(directWrites))
}
