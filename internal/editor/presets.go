/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"labeldesigner/internal/domain"
	"labeldesigner/internal/vector"
)

// Preset is a named set of style attributes.
type Preset struct {
	Name       string `yaml:"name"`
	Color      string `yaml:"color"`      // text color
	FontWeight string `yaml:"fontWeight"` // text weight, empty keeps the element's own
	Border     string `yaml:"border"`     // outline of shapes
	TextBorder string `yaml:"textBorder"` // frame around text elements, empty for none
}

// styleMu guards presets and themes, which style packs extend at runtime.
var styleMu sync.RWMutex

var presets = map[string]Preset{
	"minimal":    {Name: "minimal", Color: "#000000", Border: "1px solid #000"},
	"modern":     {Name: "modern", Color: "#212529", FontWeight: "500", Border: "1px solid #dee2e6"},
	"classic":    {Name: "classic", Color: "#000000", FontWeight: "bold", Border: "2px double #000"},
	"industrial": {Name: "industrial", Color: "#000000", FontWeight: "bold", Border: "3px solid #000", TextBorder: "1px solid #000"},
}

// Theme is a named accent color pair.
type Theme struct {
	Name    string `yaml:"name"`
	Primary string `yaml:"primary"`
	Dark    string `yaml:"dark"`
}

var themes = map[string]Theme{
	"blue":   {Name: "blue", Primary: "#007bff", Dark: "#0056b3"},
	"green":  {Name: "green", Primary: "#28a745", Dark: "#1e7e34"},
	"red":    {Name: "red", Primary: "#dc3545", Dark: "#c82333"},
	"purple": {Name: "purple", Primary: "#6f42c1", Dark: "#59359a"},
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// LookupPreset finds a preset by case-insensitive name.
func LookupPreset(name string) (Preset, bool) {
	styleMu.RLock()
	defer styleMu.RUnlock()
	p, ok := presets[key(name)]
	return p, ok
}

// LookupTheme finds a theme by case-insensitive name.
func LookupTheme(name string) (Theme, bool) {
	styleMu.RLock()
	defer styleMu.RUnlock()
	t, ok := themes[key(name)]
	return t, ok
}

// PresetNames lists the presets alphabetically.
func PresetNames() []string {
	styleMu.RLock()
	defer styleMu.RUnlock()
	return sortedKeys(presets)
}

// ThemeNames lists the themes alphabetically.
func ThemeNames() []string {
	styleMu.RLock()
	defer styleMu.RUnlock()
	return sortedKeys(themes)
}

func checkColors(field string, values ...string) error {
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, err := vector.ParseColor(v); err != nil {
			return &domain.ValidationError{Field: field, Reason: fmt.Sprintf("invalid color %q", v)}
		}
	}
	return nil
}

// RegisterPreset adds p, replacing a preset of the same name.
func RegisterPreset(p Preset) error {
	k := key(p.Name)
	if k == "" {
		return &domain.ValidationError{Field: "preset", Reason: "preset name is required"}
	}
	if err := checkColors("preset", p.Color); err != nil {
		return err
	}
	p.Name = k
	styleMu.Lock()
	presets[k] = p
	styleMu.Unlock()
	return nil
}

// RegisterTheme adds t, replacing a theme of the same name.
func RegisterTheme(t Theme) error {
	k := key(t.Name)
	if k == "" {
		return &domain.ValidationError{Field: "theme", Reason: "theme name is required"}
	}
	if t.Primary == "" || t.Dark == "" {
		return &domain.ValidationError{Field: "theme", Reason: fmt.Sprintf("theme %q needs primary and dark colors", k)}
	}
	if err := checkColors("theme", t.Primary, t.Dark); err != nil {
		return err
	}
	t.Name = k
	styleMu.Lock()
	themes[k] = t
	styleMu.Unlock()
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func isText(k domain.Kind) bool {
	return k == domain.KindField || k == domain.KindText
}

func isShape(k domain.Kind) bool {
	switch k {
	case domain.KindLine, domain.KindBox, domain.KindCircle, domain.KindTable:
		return true
	}
	return false
}

// decorate applies the preset's colors and outlines, leaving typography alone.
func (p Preset) decorate(e *domain.Element) {
	switch {
	case isText(e.Kind):
		e.Style.Color = p.Color
	case isShape(e.Kind):
		e.Style.Border = p.Border
	}
}

// apply applies the whole preset.
func (p Preset) apply(e *domain.Element) {
	p.decorate(e)
	if isText(e.Kind) {
		if p.FontWeight != "" {
			e.Style.FontWeight = p.FontWeight
		}
		e.Style.Border = p.TextBorder
	}
}

func (t Theme) apply(e *domain.Element) {
	switch {
	case isText(e.Kind):
		e.Style.Color = t.Dark
	case isShape(e.Kind):
		e.Style.Border = fmt.Sprintf("%s solid %s", borderWidth(e.Style.Border), t.Primary)
	}
}

// borderWidth returns the width token of a CSS border shorthand, "1px" if none.
func borderWidth(border string) string {
	for _, tok := range strings.Fields(border) {
		if strings.HasSuffix(tok, "px") {
			return tok
		}
	}
	return "1px"
}

// targets returns the selected elements with group members in place of groups.
func (c *Controller) targets() []domain.ElementID {
	var out []domain.ElementID
	for _, e := range c.selectionElements() {
		if !e.IsGroup() {
			out = append(out, e.ID)
		}
	}
	return out
}

// ApplyPreset styles the selection with the named preset and commits once.
func (c *Controller) ApplyPreset(name string) error {
	p, ok := LookupPreset(name)
	if !ok {
		return &domain.ValidationError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", name)}
	}
	ids := c.targets()
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		c.scene.UpdateElement(id, p.apply)
	}
	c.Commit("preset")
	return nil
}

// ApplyTheme colors the selection with the named theme and commits once.
func (c *Controller) ApplyTheme(name string) error {
	t, ok := LookupTheme(name)
	if !ok {
		return &domain.ValidationError{Field: "theme", Reason: fmt.Sprintf("unknown theme %q", name)}
	}
	ids := c.targets()
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		c.scene.UpdateElement(id, t.apply)
	}
	c.Commit("theme")
	return nil
}
