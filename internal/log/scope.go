/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"context"
	"log/slog"
)

// scope is what a context tells the logger about the edit in progress.
type scope struct {
	session  string
	template string
}

type scopeKey struct{}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

// ContextWithSession returns a context carrying the editing session id.
// Records logged with it get a "session" attribute.
func ContextWithSession(ctx context.Context, id string) context.Context {
	s := scopeFrom(ctx)
	s.session = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// ContextWithTemplate returns a context carrying the identity tag of the
// template being edited. Records logged with it get a "template" attribute.
func ContextWithTemplate(ctx context.Context, tag string) context.Context {
	s := scopeFrom(ctx)
	s.template = tag
	return context.WithValue(ctx, scopeKey{}, s)
}

// SessionFrom returns the session id stored by ContextWithSession.
func SessionFrom(ctx context.Context) (string, bool) {
	id := scopeFrom(ctx).session
	return id, id != ""
}

// scoped adds the context's session and template to each record.
type scoped struct{ next slog.Handler }

func (h scoped) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h scoped) Handle(ctx context.Context, r slog.Record) error {
	s := scopeFrom(ctx)
	if s.session != "" || s.template != "" {
		r = r.Clone()
		if s.session != "" {
			r.AddAttrs(slog.String("session", s.session))
		}
		if s.template != "" {
			r.AddAttrs(slog.String("template", s.template))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h scoped) WithAttrs(attrs []slog.Attr) slog.Handler {
	return scoped{next: h.next.WithAttrs(attrs)}
}

func (h scoped) WithGroup(name string) slog.Handler { return scoped{next: h.next.WithGroup(name)} }
