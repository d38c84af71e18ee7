// Copyright 2024 Anime Recommendation System Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreqDict(t *testing.T) {
	d := NewFreqDict[string]()
	assert.Equal(t, 0, d.Count())
	assert.Equal(t, 0, d.Id("a"))
	assert.Equal(t, 1, d.Id("b"))
	assert.Equal(t, 0, d.Id("a"))
	assert.Equal(t, 2, d.Count())
	assert.Equal(t, 2, d.Freq(0))
	assert.Equal(t, 1, d.Freq(1))

	// lookup without insertion
	id, ok := d.Index("b")
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	_, ok = d.Index("c")
	assert.False(t, ok)
	assert.Equal(t, 2, d.Count())

	v, ok := d.Value(0)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	_, ok = d.Value(2)
	assert.False(t, ok)

	assert.Equal(t, []string{"a", "b"}, d.Values())
}

func TestFreqDictNotCount(t *testing.T) {
	d := NewFreqDict[int]()
	assert.Equal(t, 0, d.NotCount(10))
	assert.Equal(t, 0, d.NotCount(10))
	assert.Equal(t, 0, d.Freq(0))
}

func TestFromValues(t *testing.T) {
	d := FromValues([]int{20, 1, 7})
	assert.Equal(t, 3, d.Count())
	id, ok := d.Index(1)
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	assert.Equal(t, []int{20, 1, 7}, d.Values())
}
