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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/notify"
	"labeldesigner/internal/storage"
)

// fakeBackend stands in for the render, print and live-data services and,
// when docs is set, the template store.
type fakeBackend struct {
	mu       sync.Mutex
	saves    int
	prints   int
	docs     map[string]domain.TemplateDocument
	lastLive domain.Record
	printErr error
	gate     chan struct{}
}

func (f *fakeBackend) wait() {
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeBackend) Save(_ context.Context, doc domain.TemplateDocument) (domain.SaveResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.docs == nil {
		f.docs = map[string]domain.TemplateDocument{}
	}
	f.docs[doc.Name] = doc
	return domain.SaveResult{Success: true, Name: doc.Name}, nil
}

func (f *fakeBackend) Load(_ context.Context, name string) (domain.TemplateDocument, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[name]
	if !ok {
		return domain.TemplateDocument{}, &domain.NotFoundError{What: "template", Key: name}
	}
	return doc, nil
}

func (f *fakeBackend) List(context.Context, domain.TemplateFilter) ([]domain.TemplateMeta, error) {
	return nil, nil
}

func (f *fakeBackend) PreviewHTML(_ context.Context, doc domain.TemplateDocument, live domain.Record) (string, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLive = live
	return "<div>" + doc.Name + "</div>", nil
}

func (f *fakeBackend) PreviewPDF(_ context.Context, doc domain.TemplateDocument, copies int) (string, error) {
	return "http://render.local/pdf/" + doc.Name, nil
}

func (f *fakeBackend) Send(_ context.Context, _ domain.TemplateDocument, s domain.PrintSettings) (domain.PrintResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prints++
	if f.printErr != nil {
		return domain.PrintResult{}, f.printErr
	}
	return domain.PrintResult{Success: true, JobID: "job-7"}, nil
}

func (f *fakeBackend) FetchRecord(_ context.Context, id string) (domain.Record, error) {
	if id != "R1" {
		return nil, &domain.NotFoundError{What: "record", Key: id}
	}
	return domain.Record{"item_code": "ABC-123"}, nil
}

type harness struct {
	s       *Session
	backend *fakeBackend
	journal *storage.Journal
	inbox   *notify.Recorder
	notes   *notify.Notifier
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	j, err := storage.OpenJournal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	rec := &notify.Recorder{}
	n := notify.New(notify.Config{}, rec)
	t.Cleanup(n.Close)
	fb := &fakeBackend{}

	cfg := DefaultConfig()
	cfg.Autosave = false
	cfg.Timeout = 2 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}
	s := NewSession(cfg, Services{Store: fb, Render: fb, Print: fb, Data: fb, Journal: j, Notifier: n})
	return &harness{s: s, backend: fb, journal: j, inbox: rec, notes: n}
}

func (h *harness) drain(t *testing.T) []notify.Notification {
	t.Helper()
	h.notes.Flush(context.Background())
	return h.inbox.Drain()
}

func (h *harness) settle(t *testing.T) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.s.Wait(ctx))
	return h.s.Pump()
}

func TestSessionSaveRequiresName(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.s.Controller().Add(domain.KindField, "item_code", nil)
	require.NoError(t, err)

	res, err := h.s.Save(context.Background())
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.False(t, res.Success)
	assert.Equal(t, "Please enter a template name", res.Error)
	assert.Zero(t, h.backend.saves, "the store must not be called")

	notes := h.drain(t)
	require.Len(t, notes, 1)
	assert.Equal(t, notify.Error, notes[0].Level)
	assert.Equal(t, "save", notes[0].Op)
	assert.Equal(t, h.s.ID(), notes[0].Session)
}

func TestSessionSaveAndLoadThroughWorkspace(t *testing.T) {
	h := newHarness(t, nil)
	ws, err := storage.InitWorkspace(t.TempDir())
	require.NoError(t, err)
	h.s.svc.Store = ws

	_, err = h.s.Controller().Add(domain.KindField, "item_code", nil)
	require.NoError(t, err)
	h.s.SetMeta(domain.TemplateMeta{Name: "Item Label", TemplateType: domain.TemplateItem})
	res, err := h.s.Save(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)

	require.NoError(t, h.s.New(domain.TemplateMeta{}, domain.LabelSize{WidthMm: 60, HeightMm: 40}))
	assert.Zero(t, h.s.Scene().Len())
	assert.Equal(t, 60.0, h.s.Scene().LabelSize().WidthMm)

	require.NoError(t, h.s.Load(context.Background(), "Item Label"))
	assert.Equal(t, "Item Label", h.s.Meta().Name)
	els := h.s.Scene().Elements()
	require.Len(t, els, 1)
	assert.Equal(t, "item_code", els[0].FieldKey)
	assert.Equal(t, domain.Geometry{X: 10, Y: 10, Width: 80, Height: 20}, els[0].Geometry)
	assert.Equal(t, 1, h.s.Controller().History().Len(), "a loaded template starts a fresh history")

	metas, err := h.s.List(context.Background(), domain.TemplateFilter{})
	require.NoError(t, err)
	require.Len(t, metas, 1)

	notes := h.drain(t)
	require.NotEmpty(t, notes)
	assert.Equal(t, notify.Success, notes[0].Level)
}

func TestSessionLoadMissingKeepsScene(t *testing.T) {
	h := newHarness(t, nil)
	id, err := h.s.Controller().Add(domain.KindBox, "", nil)
	require.NoError(t, err)
	tag := h.s.Tag()

	err = h.s.Load(context.Background(), "nope")
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "nope", nf.Key)
	_, ok := h.s.Scene().Element(id)
	assert.True(t, ok)
	assert.Equal(t, tag, h.s.Tag())

	assert.ErrorIs(t, h.s.Load(context.Background(), " "), domain.ErrValidation)
}

func TestSessionNewRejectsHalfLabelSize(t *testing.T) {
	h := newHarness(t, nil)
	assert.ErrorIs(t, h.s.New(domain.TemplateMeta{}, domain.LabelSize{WidthMm: 40}), domain.ErrValidation)
}

func TestSessionPrintLogsJobs(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.s.SetMeta(domain.TemplateMeta{Name: "Item Label"})

	res, err := h.s.Print(ctx, domain.PrintSettings{Copies: 2, Reference: "ITEM001"})
	require.NoError(t, err)
	assert.Equal(t, "job-7", res.JobID)

	_, err = h.s.Print(ctx, domain.PrintSettings{Mode: domain.PrintThermal})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, 1, h.backend.prints, "invalid settings never reach the printer")

	h.backend.printErr = &domain.ExternalServiceError{Service: "print service", Message: "printer offline"}
	_, err = h.s.Print(ctx, domain.PrintSettings{})
	assert.ErrorIs(t, err, domain.ErrExternal)

	log, err := h.journal.PrintLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, "failed", log[0].Status)
	assert.Equal(t, "printer offline", log[0].Message)
	assert.Equal(t, "sent", log[1].Status)
	assert.Equal(t, "ITEM001", log[1].Reference)
	assert.Equal(t, 2, log[1].Copies)
	assert.Equal(t, domain.PrintPDF, log[1].Mode)

	notes := h.drain(t)
	require.Len(t, notes, 3)
	assert.Equal(t, "Sent 2 label(s) to printer", notes[0].Message)
	assert.Equal(t, "printer offline", notes[2].Message)
}

func TestSessionLiveDataOnlyInLiveMode(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	rec, err := h.s.FetchLiveData(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, "ABC-123", rec["item_code"])

	_, err = h.s.PreviewHTML(ctx)
	require.NoError(t, err)
	assert.Nil(t, h.backend.lastLive)

	h.s.SetLiveMode(true)
	_, err = h.s.PreviewHTML(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec, h.backend.lastLive)

	_, err = h.s.FetchLiveData(ctx, "R2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, rec, h.s.Live(), "a failed fetch keeps the previous record")

	u, err := h.s.PreviewPDF(ctx, 0)
	require.NoError(t, err)
	assert.Contains(t, u, "/pdf/")
}

func TestSessionMissingServiceFails(t *testing.T) {
	s := NewSession(DefaultConfig(), Services{})
	_, err := s.PreviewHTML(context.Background())
	assert.ErrorIs(t, err, domain.ErrExternal)
	s.SetMeta(domain.TemplateMeta{Name: "x"})
	_, err = s.Save(context.Background())
	assert.ErrorIs(t, err, domain.ErrExternal)
}

func TestSessionLocalRendering(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.s.Controller().Add(domain.KindField, "item_code", nil)
	require.NoError(t, err)
	assert.Contains(t, h.s.Canvas(), "selected")
	assert.Contains(t, h.s.Canvas(), "ITEM001")
	assert.NotContains(t, h.s.LocalPreview(), "data-id")
}

func TestAsyncResultForReplacedSceneIsDropped(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.gate = make(chan struct{})
	called := false
	h.s.PreviewHTMLAsync(func(string, error) { called = true })

	require.NoError(t, h.s.New(domain.TemplateMeta{Name: "other"}, domain.LabelSize{}))
	close(h.backend.gate)
	assert.Zero(t, h.settle(t))
	assert.False(t, called)

	var html string
	h.s.PreviewHTMLAsync(func(out string, err error) { html = out })
	assert.Equal(t, 1, h.settle(t))
	assert.Equal(t, "<div>other</div>", html)
}

func TestLatestLoadWins(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.docs = map[string]domain.TemplateDocument{
		"A": {TemplateMeta: domain.TemplateMeta{Name: "A"}, LabelWidth: 50, LabelHeight: 30},
		"B": {TemplateMeta: domain.TemplateMeta{Name: "B"}, LabelWidth: 50, LabelHeight: 30},
	}
	var got []error
	h.s.LoadAsync("A", func(err error) { got = append(got, err) })
	h.s.LoadAsync("B", func(err error) { got = append(got, err) })
	assert.Equal(t, 1, h.settle(t))
	assert.Equal(t, "B", h.s.Meta().Name)
	assert.Equal(t, []error{nil}, got)
}

func TestSaveAsyncAndShortcut(t *testing.T) {
	h := newHarness(t, nil)
	h.s.SetMeta(domain.TemplateMeta{Name: "Quick"})
	h.s.Controller().Attach()
	require.True(t, h.s.Controller().HandleKey(Key{Name: "s", Ctrl: true}))
	h.settle(t)
	assert.Equal(t, 1, h.backend.saves)

	var res domain.SaveResult
	h.s.SaveAsync(func(r domain.SaveResult, err error) { res = r })
	h.settle(t)
	assert.True(t, res.Success)
}

func TestFetchLiveDataAsyncInstallsRecord(t *testing.T) {
	h := newHarness(t, nil)
	h.s.FetchLiveDataAsync("R1", nil)
	assert.Nil(t, h.s.Live(), "nothing changes before Pump")
	h.settle(t)
	assert.Equal(t, "ABC-123", h.s.Live()["item_code"])
}

func TestAutosaveAndRestoreDraft(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Autosave = true })
	h.s.SetMeta(domain.TemplateMeta{Name: "Draft Label"})
	_, err := h.s.Controller().Add(domain.KindField, "item_code", nil)
	require.NoError(t, err)
	require.True(t, h.s.Controller().Nudge(5, 0))

	d, err := h.journal.LatestDraft(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, h.s.ID(), d.Session)
	assert.Equal(t, "Draft Label", d.Name)

	other := NewSession(DefaultConfig(), Services{})
	require.NoError(t, other.RestoreDraft(d.State))
	assert.Equal(t, "Draft Label", other.Meta().Name)
	els := other.Scene().Elements()
	require.Len(t, els, 1)
	assert.Equal(t, 15.0, els[0].Geometry.X)

	assert.Error(t, other.RestoreDraft([]byte("{")))
	assert.Equal(t, 1, other.Scene().Len(), "a broken draft leaves the scene alone")
}

func TestLayersTopmostFirst(t *testing.T) {
	h := newHarness(t, nil)
	c := h.s.Controller()
	box := addAt(t, c, domain.KindBox, 10, 40, 80, 40)
	field, err := c.Add(domain.KindField, "item_code", nil)
	require.NoError(t, err)
	c.Scene().SetSelection([]domain.ElementID{box, field})
	gid, ok := c.Group()
	require.True(t, ok)
	text := addAt(t, c, domain.KindText, 100, 10, 80, 20)

	layers := h.s.Layers()
	require.Len(t, layers, 4)
	assert.Equal(t, Layer{ID: text, Kind: domain.KindText, Name: "Text", ZIndex: layers[0].ZIndex, Selected: true}, layers[0])
	assert.Equal(t, gid, layers[1].ID)
	assert.Equal(t, "Group (2)", layers[1].Name)
	assert.Equal(t, field, layers[2].ID)
	assert.Equal(t, "Item Code", layers[2].Name)
	assert.Equal(t, 1, layers[2].Depth)
	assert.Equal(t, box, layers[3].ID)
	assert.Equal(t, 1, layers[3].Depth)

	entries := h.s.HistoryEntries()
	assert.Equal(t, "add", entries[len(entries)-1].Label)
}
