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
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"labeldesigner/internal/config"
	"labeldesigner/internal/domain"
	applog "labeldesigner/internal/log"
	"labeldesigner/internal/notify"
	"labeldesigner/internal/render"
	"labeldesigner/internal/scene"
	"labeldesigner/internal/storage"
	tpl "labeldesigner/internal/template"
	"labeldesigner/internal/undo"
)

// Config holds the session's editing defaults.
type Config struct {
	Scene           scene.Options
	HistoryCap      int
	HistoryMaxBytes int
	Coalesce        time.Duration
	Controller      Options
	Render          render.Options
	// Autosave writes a draft to the journal after every commit.
	Autosave bool
	// Timeout bounds each call made by the async variants.
	Timeout time.Duration
}

// DefaultConfig mirrors config.Defaults.
func DefaultConfig() Config { return ConfigFrom(config.Defaults()) }

// ConfigFrom maps the application configuration onto a session config.
func ConfigFrom(app config.AppConfig) Config {
	d := app.Designer
	return Config{
		Scene: scene.Options{
			LabelSize: domain.LabelSize{WidthMm: d.LabelWidthMm, HeightMm: d.LabelHeightMm},
			Grid:      domain.GridSnap{Enabled: d.SnapToGrid, Size: d.GridSize},
			MinSize:   domain.MinSize{Width: d.MinWidth, Height: d.MinHeight},
		},
		HistoryCap: d.HistoryCap,
		Coalesce:   d.CoalesceWindow(),
		Controller: Options{SmartGuides: d.SmartGuides, GuideThreshold: d.GuideThreshold, Preset: d.Preset},
		Render:     render.Options{BarcodeURL: app.Backend.BarcodeURL, QRURL: app.Backend.QRURL},
		Autosave:   app.General.Autosave,
		Timeout:    app.Backend.Timeout(),
	}
}

// Services are the collaborators of a session. Any of them may be nil; the
// matching operations then fail with an ExternalServiceError.
type Services struct {
	Store    TemplateStore
	Render   RenderService
	Print    PrintService
	Data     LiveDataSource
	Journal  Journal
	Notifier *notify.Notifier
}

// completion is the result of an async call, applied by Pump.
type completion struct {
	tag   string
	op    string
	apply func()
	// current, when set, must also hold for apply to run
	current func() bool
}

// Session is one editing session: a scene with its history and controller
// plus the collaborators it talks to. Its methods must be called from one
// goroutine; the async variants run the network call in the background and
// deliver results through Pump.
type Session struct {
	id   string
	tag  string
	meta domain.TemplateMeta
	cfg  Config
	svc  Services
	log  *slog.Logger

	scene *scene.Scene
	ctl   *Controller

	live     domain.Record
	liveMode bool
	loadSeq  int

	done     chan completion
	inflight sync.WaitGroup
}

// NewSession opens a session on an empty label.
func NewSession(cfg Config, svc Services) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	s := &Session{
		id:   uuid.NewString(),
		cfg:  cfg,
		svc:  svc,
		done: make(chan completion, 64),
	}
	s.log = applog.WithComponent("session").With(slog.String("session", s.id))
	s.scene = scene.New(cfg.Scene)
	h := undo.New(undo.Config{MaxEntries: cfg.HistoryCap, MaxBytes: cfg.HistoryMaxBytes, Coalesce: cfg.Coalesce})
	s.ctl = NewController(s.scene, h, cfg.Controller)
	s.ctl.OnCommit = s.autosave
	s.ctl.OnSave = func() { s.SaveAsync(nil) }
	s.tag = uuid.NewString()
	return s
}

func (s *Session) ID() string                { return s.id }
func (s *Session) Tag() string               { return s.tag }
func (s *Session) Meta() domain.TemplateMeta { return s.meta }
func (s *Session) Scene() *scene.Scene       { return s.scene }
func (s *Session) Controller() *Controller   { return s.ctl }
func (s *Session) Live() domain.Record       { return s.live }

// SetMeta replaces the template metadata (name, type, barcode defaults).
func (s *Session) SetMeta(m domain.TemplateMeta) { s.meta = m }

// SetLiveMode switches preview substitution of bound fields on or off.
func (s *Session) SetLiveMode(on bool) { s.liveMode = on }

func (s *Session) ctx(parent context.Context) context.Context {
	return applog.ContextWithTemplate(applog.ContextWithSession(parent, s.id), s.tag)
}

// replace installs sc as the edited scene under a fresh identity tag.
func (s *Session) replace(sc *scene.Scene, meta domain.TemplateMeta) {
	s.scene = sc
	s.meta = meta
	s.live = nil
	s.tag = uuid.NewString()
	s.ctl.Bind(sc)
}

// New starts an empty label.
func (s *Session) New(meta domain.TemplateMeta, label domain.LabelSize) error {
	opts := s.cfg.Scene
	if label.WidthMm > 0 || label.HeightMm > 0 {
		if label.WidthMm <= 0 || label.HeightMm <= 0 {
			return &domain.ValidationError{Field: "labelSize", Reason: "label width and height must be positive"}
		}
		opts.LabelSize = label
	}
	s.replace(scene.New(opts), meta)
	return nil
}

// Open replaces the scene with one built from doc.
func (s *Session) Open(doc domain.TemplateDocument) error {
	sc, err := tpl.FromTemplate(doc, s.cfg.Scene)
	if err != nil {
		return err
	}
	s.replace(sc, doc.TemplateMeta)
	s.log.Info("template opened", slog.String("name", doc.Name), slog.Int("elements", len(doc.Elements)))
	return nil
}

// Document serializes the scene with the session's metadata.
func (s *Session) Document() domain.TemplateDocument {
	return tpl.ToTemplate(s.scene, s.meta)
}

func (s *Session) notifyOK(msg string) {
	if s.svc.Notifier != nil {
		s.svc.Notifier.Send(notify.Notification{Level: notify.Success, Message: msg, Session: s.id})
	}
}

func (s *Session) fail(op string, err error) error {
	s.log.Warn(op+" failed", slog.Any("err", err))
	if s.svc.Notifier != nil {
		s.svc.Notifier.Send(notify.Notification{Level: notify.Error, Op: op, Message: domain.UserMessage(err), Session: s.id})
	}
	return err
}

func missing(service string) error {
	return &domain.ExternalServiceError{Service: service, Message: service + " is not configured"}
}

// Save stores the current document. An empty name is rejected before the
// store is called.
func (s *Session) Save(ctx context.Context) (domain.SaveResult, error) {
	return s.save(s.ctx(ctx), s.Document())
}

func (s *Session) save(ctx context.Context, doc domain.TemplateDocument) (domain.SaveResult, error) {
	if strings.TrimSpace(doc.Name) == "" {
		err := &domain.ValidationError{Field: "name", Reason: "Please enter a template name"}
		return domain.SaveResult{Error: err.Reason}, s.fail("save", err)
	}
	if s.svc.Store == nil {
		return domain.SaveResult{}, s.fail("save", missing("template store"))
	}
	res, err := s.svc.Store.Save(ctx, doc)
	if err != nil {
		return res, s.fail("save", err)
	}
	if !res.Success {
		return res, s.fail("save", &domain.ExternalServiceError{Service: "template store", Message: res.Error})
	}
	s.notifyOK("Template saved successfully")
	return res, nil
}

// Load replaces the scene with the named template. On failure the scene is
// left untouched.
func (s *Session) Load(ctx context.Context, name string) error {
	doc, err := s.fetch(s.ctx(ctx), name)
	if err != nil {
		return err
	}
	if err := s.Open(doc); err != nil {
		return s.fail("load", err)
	}
	return nil
}

func (s *Session) fetch(ctx context.Context, name string) (domain.TemplateDocument, error) {
	if strings.TrimSpace(name) == "" {
		return domain.TemplateDocument{}, s.fail("load", &domain.ValidationError{Field: "name", Reason: "template name is required"})
	}
	if s.svc.Store == nil {
		return domain.TemplateDocument{}, s.fail("load", missing("template store"))
	}
	doc, err := s.svc.Store.Load(ctx, name)
	if err != nil {
		return domain.TemplateDocument{}, s.fail("load", err)
	}
	return doc, nil
}

// List returns the stored templates matching filter.
func (s *Session) List(ctx context.Context, filter domain.TemplateFilter) ([]domain.TemplateMeta, error) {
	if s.svc.Store == nil {
		return nil, s.fail("list", missing("template store"))
	}
	out, err := s.svc.Store.List(s.ctx(ctx), filter)
	if err != nil {
		return nil, s.fail("list", err)
	}
	return out, nil
}

func (s *Session) renderOptions() render.Options {
	o := render.OptionsFor(s.meta, s.cfg.Render)
	o.LiveMode = s.liveMode
	o.Record = s.live
	return o
}

// Canvas renders the scene for editing, marking ids and selection.
func (s *Session) Canvas() string {
	o := s.renderOptions()
	o.Editing = true
	return render.Canvas(s.scene.Elements(), s.scene.LabelSize(), s.meta, o)
}

// LocalPreview renders the current document read-only without the render service.
func (s *Session) LocalPreview() string {
	return render.Preview(s.Document(), s.renderOptions())
}

func (s *Session) liveRecord() domain.Record {
	if !s.liveMode {
		return nil
	}
	return s.live
}

// PreviewHTML asks the render service for preview markup.
func (s *Session) PreviewHTML(ctx context.Context) (string, error) {
	return s.previewHTML(s.ctx(ctx), s.Document(), s.liveRecord())
}

func (s *Session) previewHTML(ctx context.Context, doc domain.TemplateDocument, live domain.Record) (string, error) {
	if s.svc.Render == nil {
		return "", s.fail("preview", missing("render service"))
	}
	out, err := s.svc.Render.PreviewHTML(ctx, doc, live)
	if err != nil {
		return "", s.fail("preview", err)
	}
	return out, nil
}

// PreviewPDF asks the render service for a PDF of copies labels and returns its URL.
func (s *Session) PreviewPDF(ctx context.Context, copies int) (string, error) {
	return s.previewPDF(s.ctx(ctx), s.Document(), copies)
}

func (s *Session) previewPDF(ctx context.Context, doc domain.TemplateDocument, copies int) (string, error) {
	if s.svc.Render == nil {
		return "", s.fail("pdf", missing("render service"))
	}
	u, err := s.svc.Render.PreviewPDF(ctx, doc, max(copies, 1))
	if err != nil {
		return "", s.fail("pdf", err)
	}
	return u, nil
}

// Print sends the current document to the print dispatcher and records the
// job in the journal.
func (s *Session) Print(ctx context.Context, settings domain.PrintSettings) (domain.PrintResult, error) {
	return s.print(s.ctx(ctx), s.Document(), settings)
}

func (s *Session) print(ctx context.Context, doc domain.TemplateDocument, settings domain.PrintSettings) (domain.PrintResult, error) {
	settings = settings.Normalize()
	if err := settings.Validate(); err != nil {
		return domain.PrintResult{Error: domain.UserMessage(err)}, s.fail("print", err)
	}
	if s.svc.Print == nil {
		return domain.PrintResult{}, s.fail("print", missing("print service"))
	}
	res, err := s.svc.Print.Send(ctx, doc, settings)
	if err == nil && !res.Success {
		err = &domain.ExternalServiceError{Service: "print service", Message: res.Error}
	}
	s.logPrint(ctx, doc, settings, res, err)
	if err != nil {
		return res, s.fail("print", err)
	}
	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("Sent %d label(s) to printer", settings.Copies)
	}
	s.notifyOK(msg)
	return res, nil
}

func (s *Session) logPrint(ctx context.Context, doc domain.TemplateDocument, settings domain.PrintSettings, res domain.PrintResult, err error) {
	if s.svc.Journal == nil {
		return
	}
	e := storage.PrintEntry{
		JobID:     res.JobID,
		Reference: settings.Reference,
		Template:  doc.Name,
		Copies:    settings.Copies,
		Mode:      settings.Mode,
		Status:    "sent",
		Message:   res.Message,
		TS:        time.Now(),
	}
	if err != nil {
		e.Status, e.Message = "failed", domain.UserMessage(err)
	}
	if lerr := s.svc.Journal.LogPrint(ctx, e); lerr != nil {
		s.log.Warn("print log failed", slog.Any("err", lerr))
	}
}

// FetchLiveData loads the record used for live preview substitution.
func (s *Session) FetchLiveData(ctx context.Context, recordID string) (domain.Record, error) {
	rec, err := s.fetchRecord(s.ctx(ctx), recordID)
	if err != nil {
		return nil, err
	}
	s.live = rec
	return rec, nil
}

func (s *Session) fetchRecord(ctx context.Context, recordID string) (domain.Record, error) {
	if s.svc.Data == nil {
		return nil, s.fail("live data", missing("live data source"))
	}
	rec, err := s.svc.Data.FetchRecord(ctx, recordID)
	if err != nil {
		return nil, s.fail("live data", err)
	}
	return rec, nil
}

// draft is the journal representation of an editing session.
type draft struct {
	Meta  domain.TemplateMeta `json:"meta"`
	Scene json.RawMessage     `json:"scene"`
}

// DraftState serializes the open label for the journal.
func (s *Session) DraftState() (string, []byte, error) {
	st, err := s.scene.MarshalState()
	if err != nil {
		return "", nil, err
	}
	b, err := json.Marshal(draft{Meta: s.meta, Scene: st})
	if err != nil {
		return "", nil, err
	}
	return s.meta.Name, b, nil
}

// RestoreDraft replaces the scene with a journal draft.
func (s *Session) RestoreDraft(blob []byte) error {
	var d draft
	if err := json.Unmarshal(blob, &d); err != nil {
		return fmt.Errorf("decode draft: %w", err)
	}
	sc := scene.New(s.cfg.Scene)
	if err := sc.RestoreState(d.Scene); err != nil {
		return err
	}
	s.replace(sc, d.Meta)
	return nil
}

func (s *Session) autosave(label string) {
	if !s.cfg.Autosave || s.svc.Journal == nil {
		return
	}
	name, state, err := s.DraftState()
	if err != nil {
		s.log.Warn("draft snapshot failed", slog.Any("err", err))
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx(context.Background()), 2*time.Second)
	defer cancel()
	if err := s.svc.Journal.SaveDraft(ctx, s.id, name, state, time.Now()); err != nil {
		s.log.Warn("autosave failed", slog.String("after", label), slog.Any("err", err))
	}
}

// Layer is one row of the layers panel.
type Layer struct {
	ID       domain.ElementID
	Kind     domain.Kind
	Name     string
	ZIndex   int
	Depth    int
	Selected bool
}

// Layers lists elements topmost first, each group followed by its members.
func (s *Session) Layers() []Layer {
	els := s.scene.Elements()
	byID := make(map[domain.ElementID]domain.Element, len(els))
	for _, e := range els {
		byID[e.ID] = e
	}
	var out []Layer
	for i := len(els) - 1; i >= 0; i-- {
		e := els[i]
		if e.GroupID != 0 {
			continue
		}
		out = append(out, layerOf(e, 0))
		for j := len(e.Members) - 1; j >= 0; j-- {
			if m, ok := byID[e.Members[j]]; ok {
				out = append(out, layerOf(m, 1))
			}
		}
	}
	return out
}

func layerOf(e domain.Element, depth int) Layer {
	name := string(e.Kind)
	if f, ok := domain.LookupField(e.FieldKey); ok {
		name = f.Label
	} else if e.IsGroup() {
		name = fmt.Sprintf("Group (%d)", len(e.Members))
	} else if e.Content != "" && (e.Kind == domain.KindText || e.Kind == domain.KindField) {
		name = e.Content
	}
	return Layer{ID: e.ID, Kind: e.Kind, Name: name, ZIndex: e.ZIndex, Depth: depth, Selected: e.Selected}
}

// HistoryEntries lists the undo history for a history panel.
func (s *Session) HistoryEntries() []undo.Entry { return s.ctl.History().Entries() }
