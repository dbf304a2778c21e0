/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/scene"
)

var (
	rePair = regexp.MustCompile(`^(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)$`)
	reDims = regexp.MustCompile(`^(\d+(?:\.\d+)?)[xX](\d+(?:\.\d+)?)$`)
	reName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]{0,63}$`)
)

var styleKeys = map[string]string{
	"fontsize":   "fontSize",
	"fontweight": "fontWeight",
	"color":      "color",
	"textalign":  "textAlign",
	"border":     "border",
	"content":    "content",
}

var edges = map[string]scene.Edge{
	"left": scene.AlignLeft, "center": scene.AlignCenter, "right": scene.AlignRight,
	"top": scene.AlignTop, "middle": scene.AlignMiddle, "bottom": scene.AlignBottom,
}

// token is a word of a script line and the column it starts at.
type token struct {
	text string
	col  int
}

// tokenize splits a line on whitespace. Double quotes group words and a
// backslash escapes the next character inside quotes.
func tokenize(line string) ([]token, error) {
	var out []token
	var b strings.Builder
	start, inTok, quoted, escaped := 0, false, false, false
	for i, r := range line {
		switch {
		case escaped:
			b.WriteRune(r)
			escaped = false
		case quoted && r == '\\':
			escaped = true
		case r == '"':
			if !inTok {
				start, inTok = i, true
			}
			quoted = !quoted
		case !quoted && (r == ' ' || r == '\t'):
			if inTok {
				out = append(out, token{text: b.String(), col: start + 1})
				b.Reset()
				inTok = false
			}
		default:
			if !inTok {
				start, inTok = i, true
			}
			b.WriteRune(r)
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote at column %d", start+1)
	}
	if inTok {
		out = append(out, token{text: b.String(), col: start + 1})
	}
	return out, nil
}

// Parse parses script text. Blank lines and lines starting with "#" are
// skipped. Every malformed line is reported; the returned Script holds the
// lines that parsed.
func Parse(input string) (Script, []Error) {
	s := Script{}
	var errs []Error

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		toks, err := tokenize(raw)
		if err != nil {
			errs = append(errs, Error{Line: lineNo, Message: err.Error()})
			continue
		}
		cmd, perr := parseCommand(toks)
		if perr != nil {
			perr.Line = lineNo
			errs = append(errs, *perr)
			continue
		}
		cmd.Line = lineNo
		s.Commands = append(s.Commands, cmd)
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo + 1, Message: err.Error()})
	}
	return s, errs
}

func fail(t token, format string, args ...any) *Error {
	return &Error{Column: t.col, Message: fmt.Sprintf(format, args...)}
}

func pair(t token) (float64, float64, *Error) {
	m := rePair.FindStringSubmatch(t.text)
	if m == nil {
		return 0, 0, fail(t, "expected X,Y, got %q", t.text)
	}
	x, _ := strconv.ParseFloat(m[1], 64)
	y, _ := strconv.ParseFloat(m[2], 64)
	return x, y, nil
}

func dims(t token) (float64, float64, *Error) {
	m := reDims.FindStringSubmatch(t.text)
	if m == nil {
		return 0, 0, fail(t, "expected WxH, got %q", t.text)
	}
	w, _ := strconv.ParseFloat(m[1], 64)
	h, _ := strconv.ParseFloat(m[2], 64)
	if w <= 0 || h <= 0 {
		return 0, 0, fail(t, "size %q must be positive", t.text)
	}
	return w, h, nil
}

func name(t token) (string, *Error) {
	if !reName.MatchString(t.text) {
		return "", fail(t, "invalid name %q", t.text)
	}
	return t.text, nil
}

// binding strips a trailing "as NAME" from args.
func binding(args []token) ([]token, string, *Error) {
	n := len(args)
	if n >= 1 && strings.EqualFold(args[n-1].text, "as") {
		return nil, "", fail(args[n-1], "missing name after \"as\"")
	}
	if n >= 2 && strings.EqualFold(args[n-2].text, "as") {
		nm, err := name(args[n-1])
		if err != nil {
			return nil, "", err
		}
		if l := strings.ToLower(nm); l == "all" || l == "none" {
			return nil, "", fail(args[n-1], "%q is reserved", nm)
		}
		return args[:n-2], nm, nil
	}
	return args, "", nil
}

func arity(op token, args []token, lo, hi int) *Error {
	if len(args) < lo || len(args) > hi {
		switch {
		case lo == hi && lo == 0:
			return fail(op, "%s takes no arguments", op.text)
		case lo == hi:
			return fail(op, "%s takes %d argument(s), got %d", op.text, lo, len(args))
		default:
			return fail(op, "%s takes %d to %d arguments, got %d", op.text, lo, hi, len(args))
		}
	}
	return nil
}

func parseCommand(toks []token) (Command, *Error) {
	head := toks[0]
	args := toks[1:]
	cmd := Command{Op: Op(strings.ToLower(head.text))}
	var err *Error
	switch cmd.Op {
	case OpLabel:
		if err = arity(head, args, 1, 1); err == nil {
			cmd.W, cmd.H, err = dims(args[0])
		}
	case OpGrid:
		err = parseGrid(&cmd, head, args)
	case OpAdd:
		err = parseAdd(&cmd, head, args)
	case OpSelect:
		if len(args) == 0 {
			return cmd, fail(head, "select needs all, none or element names")
		}
		for _, a := range args {
			nm, nerr := name(a)
			if nerr != nil {
				return cmd, nerr
			}
			cmd.Targets = append(cmd.Targets, nm)
		}
	case OpMove:
		if err = arity(head, args, 1, 1); err == nil {
			cmd.X, cmd.Y, err = pair(args[0])
		}
	case OpResize:
		if err = arity(head, args, 2, 2); err == nil {
			if cmd.Name, err = name(args[0]); err == nil {
				cmd.W, cmd.H, err = dims(args[1])
			}
		}
	case OpAlign:
		if err = arity(head, args, 1, 1); err == nil {
			e, ok := edges[strings.ToLower(args[0].text)]
			if !ok {
				return cmd, fail(args[0], "unknown edge %q", args[0].text)
			}
			cmd.Value = string(e)
		}
	case OpGroup:
		if args, cmd.Name, err = binding(args); err == nil {
			err = arity(head, args, 0, 0)
		}
	case OpPreset, OpTheme:
		if err = arity(head, args, 1, 1); err == nil {
			cmd.Value = args[0].text
		}
	case OpSet:
		if err = arity(head, args, 2, 2); err == nil {
			k, ok := styleKeys[strings.ToLower(args[0].text)]
			if !ok {
				return cmd, fail(args[0], "unknown property %q", args[0].text)
			}
			cmd.Key, cmd.Value = k, args[1].text
			switch k {
			case "fontSize":
				if v, perr := strconv.ParseFloat(cmd.Value, 64); perr != nil || v <= 0 {
					return cmd, fail(args[1], "font size %q must be a positive number", cmd.Value)
				}
			case "textAlign":
				if !domain.ValidTextAlign(cmd.Value) {
					return cmd, fail(args[1], "text alignment %q must be one of %s", cmd.Value, strings.Join(domain.TextAligns, ", "))
				}
			}
		}
	case OpUngroup, OpFront, OpBack, OpDelete, OpCopy, OpPaste, OpDuplicate, OpUndo, OpRedo:
		err = arity(head, args, 0, 0)
	default:
		return cmd, fail(head, "unknown command %q", head.text)
	}
	if err != nil {
		return cmd, err
	}
	return cmd, nil
}

func parseGrid(cmd *Command, head token, args []token) *Error {
	if err := arity(head, args, 1, 2); err != nil {
		return err
	}
	switch strings.ToLower(args[0].text) {
	case "off":
		if len(args) > 1 {
			return fail(args[1], "grid off takes no size")
		}
		return nil
	case "on":
		cmd.Grid = true
		cmd.W = 10
		if len(args) == 2 {
			v, err := strconv.ParseFloat(args[1].text, 64)
			if err != nil || v <= 0 {
				return fail(args[1], "grid size %q must be a positive number", args[1].text)
			}
			cmd.W = v
		}
		return nil
	}
	return fail(args[0], "expected on or off, got %q", args[0].text)
}

func parseAdd(cmd *Command, head token, args []token) *Error {
	args, nm, err := binding(args)
	if err != nil {
		return err
	}
	cmd.Name = nm
	if len(args) == 0 {
		return fail(head, "add needs an element kind")
	}
	cmd.Kind = domain.Kind(strings.ToLower(args[0].text))
	if !cmd.Kind.Valid() || cmd.Kind == domain.KindGroup {
		return fail(args[0], "unknown element kind %q", args[0].text)
	}
	rest := args[1:]
	if len(rest) > 0 && !isKeyword(rest[0].text) {
		if !cmd.Kind.Bindable() {
			return fail(rest[0], "%s elements cannot be bound to a field", cmd.Kind)
		}
		cmd.Field = rest[0].text
		rest = rest[1:]
	}
	for len(rest) > 0 {
		kw := rest[0]
		if len(rest) < 2 {
			return fail(kw, "missing value after %q", kw.text)
		}
		switch strings.ToLower(kw.text) {
		case "at":
			cmd.X, cmd.Y, err = pair(rest[1])
			cmd.HasPos = true
		case "size":
			cmd.W, cmd.H, err = dims(rest[1])
		default:
			err = fail(kw, "unexpected %q", kw.text)
		}
		if err != nil {
			return err
		}
		rest = rest[2:]
	}
	return nil
}

func isKeyword(s string) bool {
	s = strings.ToLower(s)
	return s == "at" || s == "size"
}
