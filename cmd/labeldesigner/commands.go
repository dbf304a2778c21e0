/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"labeldesigner/internal/backend"
	"labeldesigner/internal/config"
	"labeldesigner/internal/crash"
	"labeldesigner/internal/domain"
	"labeldesigner/internal/editor"
	"labeldesigner/internal/export"
	applog "labeldesigner/internal/log"
	"labeldesigner/internal/notify"
	"labeldesigner/internal/render"
	"labeldesigner/internal/script"
	"labeldesigner/internal/storage"
	"labeldesigner/internal/stylepack"
	tpl "labeldesigner/internal/template"
	"labeldesigner/internal/textlayout"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"new":     cmdNew,
	"show":    cmdShow,
	"apply":   cmdApply,
	"list":    cmdList,
	"export":  cmdExport,
	"batch":   cmdBatch,
	"preview": cmdPreview,
	"print":   cmdPrint,
	"push":    cmdPush,
	"pull":    cmdPull,
	"drafts":  cmdDrafts,
	"package": cmdPackage,
	"styles":  cmdStyles,
}

// app holds what every workspace command needs.
type app struct {
	cfg     config.AppConfig
	ws      *storage.Workspace
	journal *storage.Journal
	remote  *backend.Client
	sess    *editor.Session
	log     *slog.Logger
	out     io.Writer
}

func openApp(cfg config.AppConfig, token string, target *crash.Target) (*app, error) {
	l := applog.WithComponent("cli")
	ws, err := storage.InitWorkspace(cfg.Workspace.Dir)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, ws: ws, log: l, out: os.Stdout}
	target.Workspace = ws

	j, err := storage.OpenJournal(ws.Root)
	if err != nil {
		l.Warn("journal unavailable, attempting repair", slog.Any("err", err))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, rerr := storage.RepairJournal(ctx, ws.Root); rerr == nil {
			j, err = storage.OpenJournal(ws.Root)
		}
		cancel()
	}
	if err != nil {
		l.Warn("continuing without journal", slog.Any("err", err))
	} else {
		a.journal = j
		target.Journal = j
	}

	if n, err := stylepack.Register(ws.Root); err != nil {
		l.Warn("some workspace styles were skipped", slog.Any("err", err))
	} else if n > 0 {
		l.Debug("workspace styles loaded", slog.Int("count", n))
	}

	svc := editor.Services{Store: ws, Notifier: notify.Default()}
	if a.journal != nil {
		svc.Journal = a.journal
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) != "" {
		a.remote = backend.NewFromConfig(cfg.Backend, token)
		svc.Render, svc.Print, svc.Data = a.remote, a.remote, a.remote
	}
	a.sess = editor.NewSession(editor.ConfigFrom(cfg), svc)
	target.Session = a.sess.ID()
	target.Draft = a.sess.DraftState
	return a, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = a.sess.Wait(ctx)
	a.sess.Pump()
	notify.Default().Flush(ctx)
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("close journal failed", slog.Any("err", err))
		}
	}
}

// positional splits args into n leading positionals and parses the rest as flags.
func positional(fs *flag.FlagSet, args []string, n int, what string) ([]string, error) {
	if len(args) < n {
		return nil, usageError{msg: fs.Name() + " requires " + what}
	}
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args[n:]); err != nil {
		return nil, usageError{msg: fmt.Sprintf("%s: %v", fs.Name(), err)}
	}
	return args[:n], nil
}

func parseSize(s string) (domain.LabelSize, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	w, werr := strconv.ParseFloat(ws, 64)
	h, herr := strconv.ParseFloat(hs, 64)
	if !ok || werr != nil || herr != nil {
		return domain.LabelSize{}, usageError{msg: fmt.Sprintf("invalid size %q, expected WxH in millimeters", s)}
	}
	return domain.LabelSize{WidthMm: w, HeightMm: h}, nil
}

func cmdNew(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return usageError{msg: "new requires <name>"}
	}
	meta := domain.TemplateMeta{Name: args[0], TemplateType: domain.TemplateGeneral}
	var size domain.LabelSize
	if len(args) > 1 {
		s, err := parseSize(args[1])
		if err != nil {
			return err
		}
		size = s
	}
	if len(args) > 2 {
		meta.TemplateType = args[2]
	}
	if err := a.sess.New(meta, size); err != nil {
		return err
	}
	if _, err := a.sess.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Created template", meta.Name, "at", a.ws.TemplatePath(meta.Name))
	return nil
}

func cmdShow(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return usageError{msg: "show requires <name>"}
	}
	if err := a.sess.Load(ctx, args[0]); err != nil {
		return err
	}
	meta := a.sess.Meta()
	ls := a.sess.Scene().LabelSize()
	fmt.Fprintf(a.out, "Template: %s\n", meta.Name)
	if meta.TemplateType != "" {
		fmt.Fprintf(a.out, "Type: %s\n", meta.TemplateType)
	}
	fmt.Fprintf(a.out, "Label: %gx%g mm\n", ls.WidthMm, ls.HeightMm)
	fmt.Fprintf(a.out, "Elements: %d\n", a.sess.Scene().Len())
	for _, layer := range a.sess.Layers() {
		fmt.Fprintf(a.out, "%s#%d %-8s %s\n", strings.Repeat("  ", layer.Depth+1), layer.ID, layer.Kind, layer.Name)
	}
	return nil
}

func cmdValidate(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := tpl.Decode(raw)
	if err != nil {
		return err
	}
	fmt.Printf("%s: valid (%d elements)\n", filepath.Base(path), len(doc.Elements))
	return nil
}

func cmdApply(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return usageError{msg: "apply requires <name> and <script>"}
	}
	src, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	s, errs := script.Parse(string(src))
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(a.out, "%s:%d:%d: %s\n", args[1], e.Line, e.Column, e.Message)
		}
		return fmt.Errorf("%d error(s) in %s", len(errs), filepath.Base(args[1]))
	}
	if err := a.sess.Load(ctx, args[0]); err != nil {
		return err
	}
	res, err := script.Run(a.sess.Controller(), s)
	if err != nil {
		return err
	}
	if _, err := a.sess.Save(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Applied %d command(s) to %s\n", res.Applied, args[0])
	return nil
}

func cmdList(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	remote := fs.Bool("remote", false, "list the template store instead of the workspace")
	typ := fs.String("type", "", "template type")
	q := fs.String("q", "", "name contains")
	if _, err := positional(fs, args, 0, ""); err != nil {
		return err
	}
	filter := domain.TemplateFilter{TemplateType: *typ, NameContains: *q}
	var metas []domain.TemplateMeta
	var err error
	if *remote {
		if a.remote == nil {
			return &domain.ExternalServiceError{Service: backend.ServiceStore, Message: "No backend configured"}
		}
		metas, err = a.remote.List(ctx, filter)
	} else {
		metas, err = a.sess.List(ctx, filter)
	}
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tDEFAULT")
	for _, m := range metas {
		def := ""
		if m.IsDefault {
			def = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, m.TemplateType, def)
	}
	return tw.Flush()
}

// loadLive opens name and, when recordID is set, switches to live mode with
// that record.
func (a *app) loadLive(ctx context.Context, name, recordID string) error {
	if err := a.sess.Load(ctx, name); err != nil {
		return err
	}
	if recordID == "" {
		return nil
	}
	if _, err := a.sess.FetchLiveData(ctx, recordID); err != nil {
		return err
	}
	a.sess.SetLiveMode(true)
	return nil
}

func cmdExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	record := fs.String("record", "", "live data record id")
	copies := fs.Int("copies", 1, "copies (pdf, zpl, html)")
	dpi := fs.Int("dpi", 0, "png resolution")
	fontPath := fs.String("font", "", "TrueType font for png text")
	guides := fs.Bool("guides", false, "outline the label edge")
	pos, err := positional(fs, args, 3, "<name> <format> <out>")
	if err != nil {
		return err
	}
	name, format, out := pos[0], strings.ToLower(pos[1]), pos[2]
	if err := a.loadLive(ctx, name, *record); err != nil {
		return err
	}
	doc := a.sess.Document()
	opt := export.Options{IncludeGuides: *guides, LiveMode: *record != "", Record: a.sess.Live(), Copies: *copies}
	switch format {
	case "pdf":
		err = export.ExportPDF(doc, out, export.PDFOptions{Options: opt, Title: doc.Name})
	case "png":
		po := export.PNGOptions{Options: opt, DPI: *dpi}
		if *fontPath != "" {
			lib := textlayout.NewFontLibrary()
			if err := lib.LoadTTF("custom", false, *fontPath); err != nil {
				return err
			}
			po.Fonts, po.FontFamily = lib, "custom"
		}
		err = export.ExportPNG(doc, out, po)
	case "svg":
		err = export.ExportSVG(doc, out, export.SVGOptions{Options: opt})
	case "zpl":
		err = export.ExportZPL(doc, out, opt)
	case "html":
		ro := render.OptionsFor(doc.TemplateMeta, render.Options{
			LiveMode:   opt.LiveMode,
			Record:     opt.Record,
			BarcodeURL: a.cfg.Backend.BarcodeURL,
			QRURL:      a.cfg.Backend.QRURL,
		})
		var html string
		if html, err = render.PrintDocument(doc, ro, *copies); err == nil {
			err = os.WriteFile(out, []byte(html), 0o644)
		}
	default:
		return usageError{msg: fmt.Sprintf("unknown export format %q", format)}
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Wrote", out)
	return nil
}

func cmdBatch(ctx context.Context, a *app, args []string) error {
	if len(args) < 3 {
		return usageError{msg: "batch requires <name> <preset> <dir>"}
	}
	if err := a.sess.Load(ctx, args[0]); err != nil {
		return err
	}
	paths, err := export.BatchExport(a.sess.Document(), export.BatchOptions{
		Preset: export.PresetName(strings.ToLower(args[1])),
		OutDir: args[2],
	})
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(a.out, "Wrote", p)
	}
	return nil
}

func cmdPreview(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	remote := fs.Bool("remote", false, "render through the render service")
	pdf := fs.Int("pdf", 0, "request a PDF preview with this many copies")
	record := fs.String("record", "", "live data record id")
	pos, err := positional(fs, args, 1, "<name>")
	if err != nil {
		return err
	}
	if err := a.loadLive(ctx, pos[0], *record); err != nil {
		return err
	}
	switch {
	case *pdf > 0:
		url, err := a.sess.PreviewPDF(ctx, *pdf)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, url)
	case *remote:
		html, err := a.sess.PreviewHTML(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, html)
	default:
		fmt.Fprintln(a.out, a.sess.LocalPreview())
	}
	return nil
}

func cmdPrint(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("print", flag.ContinueOnError)
	copies := fs.Int("copies", 1, "number of labels")
	mode := fs.String("mode", string(domain.PrintPDF), "pdf, thermal or laser")
	printer := fs.String("printer", "", "printer address ip[:port]")
	ref := fs.String("ref", "", "reference of the labelled record")
	pos, err := positional(fs, args, 1, "<name>")
	if err != nil {
		return err
	}
	settings := domain.PrintSettings{Copies: *copies, Mode: domain.PrintMode(strings.ToLower(*mode)), Reference: *ref}
	if *printer != "" {
		host, port, err := net.SplitHostPort(*printer)
		if err != nil {
			host = *printer
		} else if settings.PrinterPort, err = strconv.Atoi(port); err != nil {
			return usageError{msg: fmt.Sprintf("invalid printer port %q", port)}
		}
		settings.PrinterIP = host
	}
	if err := a.sess.Load(ctx, pos[0]); err != nil {
		return err
	}
	res, err := a.sess.Print(ctx, settings)
	if err != nil {
		return err
	}
	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("Sent %d label(s) to printer", settings.Normalize().Copies)
	}
	if res.JobID != "" {
		msg += " (job " + res.JobID + ")"
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) needRemote() error {
	if a.remote == nil {
		return &domain.ExternalServiceError{Service: backend.ServiceStore, Message: "No backend configured"}
	}
	return nil
}

func cmdPush(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return usageError{msg: "push requires <name>"}
	}
	if err := a.needRemote(); err != nil {
		return err
	}
	doc, err := a.ws.Load(ctx, args[0])
	if err != nil {
		return err
	}
	res, err := a.remote.Save(ctx, doc)
	if err != nil {
		return err
	}
	if !res.Success {
		return &domain.ExternalServiceError{Service: backend.ServiceStore, Message: res.Error}
	}
	fmt.Fprintln(a.out, "Pushed", doc.Name)
	return nil
}

func cmdPull(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return usageError{msg: "pull requires <name>"}
	}
	if err := a.needRemote(); err != nil {
		return err
	}
	doc, err := a.remote.Load(ctx, args[0])
	if err != nil {
		return err
	}
	if _, err := a.ws.Save(ctx, doc); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Pulled", doc.Name, "into", a.ws.TemplatePath(doc.Name))
	return nil
}

func cmdDrafts(ctx context.Context, a *app, args []string) error {
	if a.journal == nil {
		return fmt.Errorf("the draft journal is not available")
	}
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		drafts, err := a.journal.ListDrafts(ctx, 20)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSAVED\tNAME\tSESSION")
		for _, d := range drafts {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.ID, d.TS.Local().Format(time.DateTime), d.Name, d.Session)
		}
		return tw.Flush()
	case "restore":
		d, err := a.journal.LatestDraft(ctx)
		if err != nil {
			return err
		}
		if d == nil {
			fmt.Fprintln(a.out, "No drafts to restore.")
			return nil
		}
		if err := a.sess.RestoreDraft(d.State); err != nil {
			return err
		}
		if _, err := a.sess.Save(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Restored draft of", a.sess.Meta().Name)
		return nil
	case "prune":
		n, err := a.journal.PruneDrafts(ctx, a.cfg.Workspace.KeepDrafts)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Removed %d draft(s)\n", n)
		return nil
	}
	return usageError{msg: fmt.Sprintf("unknown drafts command %q", sub)}
}

func cmdPackage(ctx context.Context, a *app, args []string) error {
	if len(args) < 2 {
		return usageError{msg: "package requires export <out> [names...] or import <file>"}
	}
	switch args[0] {
	case "export":
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := a.ws.ExportPackage(ctx, f, args[2:], time.Now()); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Wrote", args[1])
		return nil
	case "import":
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		names, err := a.ws.ImportPackage(ctx, f)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Imported %d template(s): %s\n", len(names), strings.Join(names, ", "))
		return nil
	}
	return usageError{msg: fmt.Sprintf("unknown package command %q", args[0])}
}

func cmdStyles(_ context.Context, a *app, args []string) error {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		fmt.Fprintln(a.out, "Presets:", strings.Join(editor.PresetNames(), ", "))
		fmt.Fprintln(a.out, "Themes: ", strings.Join(editor.ThemeNames(), ", "))
		return nil
	case "export", "install":
		if len(args) < 2 {
			return usageError{msg: "styles " + sub + " requires <zip>"}
		}
		if sub == "export" {
			if err := stylepack.ExportStyles(a.ws.Root, args[1]); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Wrote", args[1])
			return nil
		}
		n, err := stylepack.InstallPack(a.ws.Root, args[1])
		if err != nil {
			return err
		}
		if _, err := stylepack.Register(a.ws.Root); err != nil {
			a.log.Warn("some installed styles were skipped", slog.Any("err", err))
		}
		fmt.Fprintf(a.out, "Installed %d file(s)\n", n)
		return nil
	}
	return usageError{msg: fmt.Sprintf("unknown styles command %q", sub)}
}
