/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labeldesigner/internal/domain"
)

func TestPasteOffsetsAndFreshIDs(t *testing.T) {
	c := plain(t)
	src := addAt(t, c, domain.KindField, 10, 10, 80, 20)
	require.Equal(t, 1, c.Copy())

	first := c.Paste()
	require.Len(t, first, 1)
	assert.NotEqual(t, src, first[0])
	assert.Equal(t, domain.Geometry{X: 20, Y: 20, Width: 80, Height: 20}, geometryOf(t, c, first[0]))
	assert.Equal(t, first, c.Scene().Selection())

	second := c.Paste()
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0], second[0])
	assert.Equal(t, 30.0, geometryOf(t, c, second[0]).X)
	assert.Equal(t, 3, c.Scene().Len())
	assert.Equal(t, "paste", c.History().Entries()[c.History().Index()].Label)
}

func TestClipboardIsIsolatedFromScene(t *testing.T) {
	c := plain(t)
	src := addAt(t, c, domain.KindText, 10, 10, 100, 20)
	c.Copy()
	require.True(t, c.Update(src, func(e *domain.Element) { e.Content = "changed" }))

	ids := c.Paste()
	require.Len(t, ids, 1)
	e, _ := c.Scene().Element(ids[0])
	assert.Equal(t, "Text", e.Content)
}

func TestPasteGroupKeepsMembership(t *testing.T) {
	c := plain(t)
	addAt(t, c, domain.KindField, 10, 10, 80, 20)
	addAt(t, c, domain.KindBox, 10, 40, 80, 40)
	c.SelectAll()
	gid, ok := c.Group()
	require.True(t, ok)
	require.Equal(t, 3, c.Copy())

	ids := c.Paste()
	require.Len(t, ids, 1, "only the new group is selected")
	assert.NotEqual(t, gid, ids[0])
	g, ok := c.Scene().Element(ids[0])
	require.True(t, ok)
	require.True(t, g.IsGroup())
	require.Len(t, g.Members, 2)
	for _, m := range g.Members {
		me, ok := c.Scene().Element(m)
		require.True(t, ok)
		assert.Equal(t, ids[0], me.GroupID)
	}
	assert.Equal(t, 6, c.Scene().Len())
}

func TestCutAndDuplicate(t *testing.T) {
	c := plain(t)
	src := addAt(t, c, domain.KindBox, 10, 10, 80, 40)

	dup := c.Duplicate()
	require.Len(t, dup, 1)
	assert.Equal(t, 20.0, geometryOf(t, c, dup[0]).X)
	assert.False(t, c.HasClipboard(), "duplicate leaves the clipboard alone")

	c.Scene().SetSelection([]domain.ElementID{src})
	require.True(t, c.Cut())
	_, exists := c.Scene().Element(src)
	assert.False(t, exists)
	assert.True(t, c.HasClipboard())

	c.ClearSelection()
	assert.Zero(t, c.Copy())
	assert.True(t, c.HasClipboard(), "empty copy keeps the previous clipboard")
	assert.Nil(t, c.Duplicate())
}

func TestBindResetsPasteOffset(t *testing.T) {
	c := plain(t)
	addAt(t, c, domain.KindBox, 10, 10, 80, 40)
	c.Copy()
	c.Paste()
	c.Paste()

	other := plain(t).Scene()
	c.Bind(other)
	ids := c.Paste()
	require.Len(t, ids, 1)
	assert.Equal(t, 20.0, geometryOf(t, c, ids[0]).X)
	assert.Equal(t, 2, c.History().Len())
}
