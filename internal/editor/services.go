/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor drives a label scene from user input. The Controller turns
// pointer and keyboard events into scene mutations and history snapshots;
// the Session ties a controller to the template store, the render and print
// services and the live-data source.
package editor

import (
	"context"
	"time"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/storage"
)

// TemplateStore persists template documents.
type TemplateStore interface {
	Save(ctx context.Context, doc domain.TemplateDocument) (domain.SaveResult, error)
	Load(ctx context.Context, name string) (domain.TemplateDocument, error)
	List(ctx context.Context, filter domain.TemplateFilter) ([]domain.TemplateMeta, error)
}

// RenderService produces preview markup and print-ready PDFs.
type RenderService interface {
	PreviewHTML(ctx context.Context, doc domain.TemplateDocument, live domain.Record) (string, error)
	PreviewPDF(ctx context.Context, doc domain.TemplateDocument, copies int) (string, error)
}

// PrintService dispatches a template to a printer.
type PrintService interface {
	Send(ctx context.Context, doc domain.TemplateDocument, settings domain.PrintSettings) (domain.PrintResult, error)
}

// LiveDataSource resolves a record id to field values.
type LiveDataSource interface {
	FetchRecord(ctx context.Context, id string) (domain.Record, error)
}

// Journal keeps autosaved drafts and the print log.
type Journal interface {
	SaveDraft(ctx context.Context, session, name string, state []byte, ts time.Time) error
	LogPrint(ctx context.Context, e storage.PrintEntry) error
}
