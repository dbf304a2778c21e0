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

func ctrl(name string) Key { return Key{Name: name, Ctrl: true} }

func TestKeysIgnoredUntilAttached(t *testing.T) {
	c := plain(t)
	addAt(t, c, domain.KindBox, 10, 10, 80, 40)
	assert.False(t, c.HandleKey(Key{Name: "Delete"}))
	assert.Equal(t, 1, c.Scene().Len())

	c.Attach()
	c.SetTextFocus(true)
	assert.False(t, c.HandleKey(Key{Name: "Delete"}), "typing in a property field")
	c.SetTextFocus(false)
	assert.True(t, c.HandleKey(Key{Name: "Delete"}))
	assert.Equal(t, 0, c.Scene().Len())

	c.Detach()
	assert.False(t, c.Attached())
	assert.False(t, c.HandleKey(ctrl("z")))
}

func TestShortcuts(t *testing.T) {
	c := plain(t)
	c.Attach()
	id := addAt(t, c, domain.KindBox, 10, 10, 80, 40)

	assert.True(t, c.HandleKey(Key{Name: "ArrowRight"}))
	assert.True(t, c.HandleKey(Key{Name: "ArrowDown", Shift: true}))
	assert.Equal(t, domain.Geometry{X: 11, Y: 20, Width: 80, Height: 40}, geometryOf(t, c, id))

	assert.True(t, c.HandleKey(ctrl("c")))
	assert.True(t, c.HandleKey(ctrl("v")))
	assert.True(t, c.HandleKey(ctrl("d")))
	assert.Equal(t, 3, c.Scene().Len())

	assert.True(t, c.HandleKey(ctrl("a")))
	assert.Len(t, c.Scene().Selection(), 3)
	assert.True(t, c.HandleKey(ctrl("g")))
	assert.Len(t, c.Scene().Selection(), 1)
	assert.True(t, c.HandleKey(Key{Name: "G", Ctrl: true, Shift: true}))

	assert.True(t, c.HandleKey(ctrl("z")))
	assert.True(t, c.HandleKey(Key{Name: "z", Meta: true, Shift: true}))
	assert.False(t, c.HandleKey(ctrl("y")), "nothing left to redo")

	assert.False(t, c.HandleKey(ctrl("s")), "no save handler")
	saved := 0
	c.OnSave = func() { saved++ }
	assert.True(t, c.HandleKey(ctrl("s")))
	assert.Equal(t, 1, saved)

	assert.False(t, c.HandleKey(Key{Name: "F5"}))
}

func TestEscapeCancelsThenClears(t *testing.T) {
	c := plain(t)
	c.Attach()
	id := addAt(t, c, domain.KindBox, 10, 10, 80, 40)

	require.True(t, c.PointerDown(pt(20, 20), false))
	c.PointerMove(pt(70, 70))
	assert.True(t, c.HandleKey(Key{Name: "Escape"}))
	assert.Equal(t, Idle, c.Mode())
	assert.Equal(t, 10.0, geometryOf(t, c, id).X)
	assert.Equal(t, []domain.ElementID{id}, c.Scene().Selection())

	assert.True(t, c.HandleKey(Key{Name: "Escape"}))
	assert.Empty(t, c.Scene().Selection())
}
