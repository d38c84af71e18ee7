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

// FreqDict maps sparse identifiers to dense zero-based indices in first-seen
// order, counting how often each identifier appears.
type FreqDict[T comparable] struct {
	si  map[T]int
	is  []T
	cnt []int
}

func NewFreqDict[T comparable]() (d *FreqDict[T]) {
	d = &FreqDict[T]{map[T]int{}, []T{}, []int{}}
	return
}

func (d *FreqDict[T]) Count() int {
	return len(d.is)
}

// Id returns the dense index of s, assigning the next index on first sight.
// The frequency counter of s is increased.
func (d *FreqDict[T]) Id(s T) (y int) {
	if y, ok := d.si[s]; ok {
		d.cnt[y]++
		return y
	}

	y = len(d.is)
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 1)
	return
}

// NotCount returns the dense index of s without touching the frequency counter.
func (d *FreqDict[T]) NotCount(s T) (y int) {
	if y, ok := d.si[s]; ok {
		return y
	}

	y = len(d.is)
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 0)
	return
}

// Index looks up the dense index of s without inserting it.
func (d *FreqDict[T]) Index(s T) (y int, ok bool) {
	y, ok = d.si[s]
	return
}

// Value returns the identifier at a dense index.
func (d *FreqDict[T]) Value(id int) (s T, ok bool) {
	if id >= len(d.is) || id < 0 {
		var zero T
		return zero, false
	}
	return d.is[id], true
}

func (d *FreqDict[T]) Freq(id int) int {
	if id >= len(d.cnt) {
		return 0
	}
	return d.cnt[id]
}

// Values returns all identifiers in dense index order. The returned slice is
// shared with the dictionary and must not be modified.
func (d *FreqDict[T]) Values() []T {
	return d.is
}

// FromValues rebuilds a dictionary from identifiers in dense index order.
func FromValues[T comparable](values []T) *FreqDict[T] {
	d := NewFreqDict[T]()
	for _, v := range values {
		d.NotCount(v)
	}
	return d
}
