/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package notify delivers user-facing notifications without ever blocking
// the caller. Notifications are queued on a bounded channel and handed to
// sinks from a single background goroutine; when the queue is full new
// notifications are dropped.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"labeldesigner/internal/domain"
	applog "labeldesigner/internal/log"
	"labeldesigner/internal/version"
)

// Level is the severity of a notification.
type Level string

const (
	Info    Level = "info"
	Success Level = "success"
	Warning Level = "warning"
	Error   Level = "error"
)

// Notification is one message for the user.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	Op      string    `json:"op,omitempty"`
	Session string    `json:"session,omitempty"`
	TS      time.Time `json:"ts"`
}

// Sink receives notifications on the notifier goroutine.
type Sink interface {
	Deliver(n Notification)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Notification)

func (f SinkFunc) Deliver(n Notification) { f(n) }

// Config holds runtime configuration for the notifier.
//
// Environment variables (read by FromEnv):
// - LBD_NOTIFY_URL: webhook receiving notifications as JSON
// - LBD_CRASH_UPLOAD_URL: URL to POST crash reports to
// - LBD_NOTIFY_TIMEOUT_MS: request timeout, default 1500ms
// - LBD_NOTIFY_DEBUG: if set, logs webhook send attempts
type Config struct {
	WebhookURL   string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
	// QueueSize bounds pending notifications; zero means 64.
	QueueSize int
}

func FromEnv() Config {
	cfg := Config{
		WebhookURL:   strings.TrimSpace(os.Getenv("LBD_NOTIFY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("LBD_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("LBD_NOTIFY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("LBD_NOTIFY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

// Notifier is a minimal async dispatcher.
type Notifier struct {
	cfg     Config
	log     *slog.Logger
	cli     *http.Client
	sinks   []Sink
	q       chan Notification
	pending atomic.Int64
	dropped atomic.Int64
	once    sync.Once
	closed  chan struct{}
}

var defaultNotifier *Notifier
var defaultOnce sync.Once

// InitDefault initializes the package-level notifier from env when first used.
// It logs through LogSink.
func InitDefault() {
	defaultOnce.Do(func() {
		defaultNotifier = New(FromEnv(), LogSink{})
	})
}

// Default returns the package-level notifier.
func Default() *Notifier {
	InitDefault()
	return defaultNotifier
}

// New constructs a notifier delivering to sinks and, when configured, the webhook.
func New(cfg Config, sinks ...Sink) *Notifier {
	size := cfg.QueueSize
	if size <= 0 {
		size = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 1500 * time.Millisecond
	}
	n := &Notifier{
		cfg:    cfg,
		log:    applog.WithComponent("notify"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		sinks:  sinks,
		q:      make(chan Notification, size),
		closed: make(chan struct{}),
	}
	go n.loop()
	return n
}

// Notify queues a notification. It never blocks; when the queue is full or
// the notifier is closed the notification is dropped.
func (n *Notifier) Notify(level Level, msg string) {
	n.Send(Notification{Level: level, Message: msg})
}

// Send queues n as is, filling in the timestamp.
func (n *Notifier) Send(note Notification) {
	if n == nil || strings.TrimSpace(note.Message) == "" {
		return
	}
	select {
	case <-n.closed:
		n.dropped.Add(1)
		return
	default:
	}
	if note.TS.IsZero() {
		note.TS = time.Now().UTC()
	}
	n.pending.Add(1)
	select {
	case n.q <- note:
	default:
		n.pending.Add(-1)
		n.dropped.Add(1)
	}
}

// Failure reports err to the user with the message for its error category.
func (n *Notifier) Failure(op string, err error) {
	if err == nil {
		return
	}
	n.Send(Notification{Level: Error, Op: op, Message: domain.UserMessage(err)})
}

// Dropped reports how many notifications were discarded.
func (n *Notifier) Dropped() int64 { return n.dropped.Load() }

// Flush waits briefly for queued notifications to be delivered.
func (n *Notifier) Flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		if n.pending.Load() == 0 || time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Close stops the background goroutine. Queued notifications are discarded.
func (n *Notifier) Close() { n.once.Do(func() { close(n.closed) }) }

func (n *Notifier) loop() {
	for {
		select {
		case <-n.closed:
			return
		case note := <-n.q:
			n.deliver(note)
			n.pending.Add(-1)
		}
	}
}

func (n *Notifier) deliver(note Notification) {
	for _, s := range n.sinks {
		s.Deliver(note)
	}
	if n.cfg.WebhookURL != "" {
		n.post(note)
	}
}

func (n *Notifier) post(note Notification) {
	payload := map[string]any{
		"level":   note.Level,
		"message": note.Message,
		"ts":      note.TS.Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
	}
	if note.Op != "" {
		payload["op"] = note.Op
	}
	if note.Session != "" {
		payload["session"] = note.Session
	}
	buf, _ := json.Marshal(payload)
	req, err := http.NewRequest(http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(buf))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.cli.Do(req)
	if err != nil {
		if n.cfg.DebugLogging {
			n.log.Debug("webhook send failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if n.cfg.DebugLogging {
		n.log.Debug("webhook notification sent", slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts a serialized crash report to the configured crash URL.
// It waits at most the configured timeout.
func (n *Notifier) UploadCrash(report []byte) {
	if n == nil || n.cfg.CrashURL == "" {
		return
	}
	req, err := http.NewRequest(http.MethodPost, n.cfg.CrashURL, bytes.NewReader(report))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp, err := n.cli.Do(req)
	if err != nil {
		if n.cfg.DebugLogging {
			n.log.Debug("crash upload failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if n.cfg.DebugLogging {
		n.log.Debug("crash report uploaded")
	}
}

// Notify using the default notifier.
func Notify(level Level, msg string) { Default().Notify(level, msg) }

// UploadCrash using the default notifier.
func UploadCrash(report []byte) { Default().UploadCrash(report) }

// LogSink writes notifications to the application log.
type LogSink struct{}

func (LogSink) Deliver(n Notification) {
	l := applog.WithComponent("notify")
	if n.Op != "" {
		l = applog.WithOperation(l, n.Op)
	}
	switch n.Level {
	case Error:
		l.Error(n.Message)
	case Warning:
		l.Warn(n.Message)
	default:
		l.Info(n.Message, slog.String("level", string(n.Level)))
	}
}

// Recorder keeps delivered notifications in memory, for front ends that
// poll and for tests.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Deliver(n Notification) {
	r.mu.Lock()
	r.items = append(r.items, n)
	r.mu.Unlock()
}

// Drain returns and clears the recorded notifications.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.items
	r.items = nil
	return out
}
