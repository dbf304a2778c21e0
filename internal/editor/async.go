/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"log/slog"

	"labeldesigner/internal/domain"
)

// async runs call on a background goroutine against the session identity
// current at submission. The returned closure is applied by Pump, and only
// while that identity still holds and current (when set) reports true.
func (s *Session) async(op string, current func() bool, call func(ctx context.Context) func()) {
	c := completion{tag: s.tag, op: op, current: current}
	ctx, cancel := context.WithTimeout(s.ctx(context.Background()), s.cfg.Timeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		c.apply = call(ctx)
		s.done <- c
	}()
}

// Pump applies finished async results on the caller's goroutine and returns
// how many were applied. Results for a scene that has since been replaced
// are dropped.
func (s *Session) Pump() int {
	n := 0
	for {
		select {
		case c := <-s.done:
			if c.tag != s.tag || (c.current != nil && !c.current()) {
				s.log.Debug("stale result dropped", slog.String("op", c.op))
				continue
			}
			if c.apply != nil {
				c.apply()
			}
			n++
		default:
			return n
		}
	}
}

// Wait blocks until every async call has finished or ctx is done. Results
// still need a Pump to be applied.
func (s *Session) Wait(ctx context.Context) error {
	ch := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(ch)
	}()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SaveAsync saves the document as it is now.
func (s *Session) SaveAsync(done func(domain.SaveResult, error)) {
	doc := s.Document()
	s.async("save", nil, func(ctx context.Context) func() {
		res, err := s.save(ctx, doc)
		return func() {
			if done != nil {
				done(res, err)
			}
		}
	})
}

// LoadAsync fetches a template and opens it on Pump. When loads overlap only
// the most recently requested one is opened.
func (s *Session) LoadAsync(name string, done func(error)) {
	s.loadSeq++
	seq := s.loadSeq
	s.async("load", func() bool { return seq == s.loadSeq }, func(ctx context.Context) func() {
		doc, err := s.fetch(ctx, name)
		return func() {
			if err == nil {
				if err = s.Open(doc); err != nil {
					err = s.fail("load", err)
				}
			}
			if done != nil {
				done(err)
			}
		}
	})
}

// PreviewHTMLAsync requests preview markup for the document as it is now.
func (s *Session) PreviewHTMLAsync(done func(string, error)) {
	doc, live := s.Document(), s.liveRecord()
	s.async("preview", nil, func(ctx context.Context) func() {
		out, err := s.previewHTML(ctx, doc, live)
		return func() {
			if done != nil {
				done(out, err)
			}
		}
	})
}

func (s *Session) PreviewPDFAsync(copies int, done func(string, error)) {
	doc := s.Document()
	s.async("pdf", nil, func(ctx context.Context) func() {
		u, err := s.previewPDF(ctx, doc, copies)
		return func() {
			if done != nil {
				done(u, err)
			}
		}
	})
}

// PrintAsync sends the document as it is now. The job is logged when the
// call returns even if its result is later dropped by Pump.
func (s *Session) PrintAsync(settings domain.PrintSettings, done func(domain.PrintResult, error)) {
	doc := s.Document()
	s.async("print", nil, func(ctx context.Context) func() {
		res, err := s.print(ctx, doc, settings)
		return func() {
			if done != nil {
				done(res, err)
			}
		}
	})
}

// FetchLiveDataAsync loads a live-data record and installs it on Pump.
func (s *Session) FetchLiveDataAsync(recordID string, done func(domain.Record, error)) {
	s.async("live data", nil, func(ctx context.Context) func() {
		rec, err := s.fetchRecord(ctx, recordID)
		return func() {
			if err == nil {
				s.live = rec
			}
			if done != nil {
				done(rec, err)
			}
		}
	})
}
