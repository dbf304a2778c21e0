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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"labeldesigner/internal/config"
	"labeldesigner/internal/crash"
	"labeldesigner/internal/domain"
	applog "labeldesigner/internal/log"
	"labeldesigner/internal/notify"
	"labeldesigner/internal/version"
)

func usage() {
	fmt.Println("Label Designer")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  labeldesigner version|-v|--version                 Show version")
	fmt.Println("  labeldesigner new <name> [WxH] [type]               Create an empty template (size in mm)")
	fmt.Println("  labeldesigner show <name>                           Print a template summary and its layers")
	fmt.Println("  labeldesigner validate <file.json>                  Check a template document against the schema")
	fmt.Println("  labeldesigner apply <name> <script>                 Run an edit script against a template and save it")
	fmt.Println("  labeldesigner list [-remote] [-type T] [-q text]    List templates")
	fmt.Println("  labeldesigner export <name> <pdf|png|svg|zpl|html> <out> [-record id] [-copies n] [-dpi n] [-font ttf]")
	fmt.Println("  labeldesigner batch <name> <proof|web|thermal> <dir> Export a preset bundle")
	fmt.Println("  labeldesigner preview <name> [-remote] [-pdf n] [-record id]")
	fmt.Println("  labeldesigner print <name> [-copies n] [-mode pdf|thermal|laser] [-printer ip[:port]] [-ref r]")
	fmt.Println("  labeldesigner push|pull <name>                      Copy a template to or from the template store")
	fmt.Println("  labeldesigner drafts [list|restore|prune]           Manage autosaved drafts")
	fmt.Println("  labeldesigner package export <out> [names...] | package import <file>")
	fmt.Println("  labeldesigner styles list | styles export <zip> | styles install <zip>")
	fmt.Println("  labeldesigner token <value>                         Store the backend token in the OS keychain")
}

func main() {
	cfg, token, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	defer applog.Close()
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", cfgErr))
	}
	notify.InitDefault()
	target := &crash.Target{}
	defer crash.Recover(target)

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) < 2 {
		usage()
		return
	}
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Println("Label Designer")
		fmt.Println(version.String())
		return
	case "help", "-h", "--help":
		usage()
		return
	case "token":
		if len(args) < 3 {
			fmt.Println("token requires <value>")
			usage()
			os.Exit(2)
		}
		if err := config.SetToken(args[2]); err != nil {
			exitErr(l, err)
		}
		fmt.Println("Token stored in the OS keychain.")
		return
	case "validate":
		if len(args) < 3 {
			fmt.Println("validate requires <file.json>")
			usage()
			os.Exit(2)
		}
		if err := cmdValidate(args[2]); err != nil {
			exitErr(l, err)
		}
		return
	}

	cmd, ok := commands[args[1]]
	if !ok {
		usage()
		os.Exit(2)
	}
	a, err := openApp(cfg, token, target)
	if err != nil {
		exitErr(l, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	err = cmd(ctx, a, args[2:])
	cancel()
	a.close()
	if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Println(ue.msg)
			usage()
			os.Exit(2)
		}
		exitErr(l, err)
	}
}

// usageError reports a malformed command line.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func exitErr(l *slog.Logger, err error) {
	l.Error("command failed", slog.Any("err", err))
	fmt.Println("Error:", domain.UserMessage(err))
	_ = applog.Close()
	os.Exit(1)
}
