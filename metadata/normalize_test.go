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

package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		title    string
		expected string
	}{
		{"Attack on Titan", "attack on titan"},
		{"Attack on Titan Season 2", "attack on titan"},
		{"Attack on Titan: The Final Season", "attack on titan"},
		{"Naruto", "naruto"},
		{"Naruto: Shippuden", "naruto"},
		{"Naruto Shippuden", "naruto"},
		{"Fullmetal Alchemist: Brotherhood", "fullmetal alchemist"},
		{"Boruto: Naruto Next Generations", "boruto"},
		{"Haikyuu!! 2nd Season", "haikyuu!!"},
		{"Mob Psycho 100 II", "mob psycho 100 ii"},
		{"One Punch Man 2", "one punch man"},
		{"Gintama Part 4", "gintama"},
		{"  My   Hero    Academia  ", "my hero academia"},
		{"", ""},
		{":::", ""},
		{"3", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.expected, Normalize(c.title), c.title)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	titles := []string{
		"Attack on Titan Season 2",
		"Naruto: Shippuden",
		"Code Geass 2: Lelouch of the Rebellion",
		"Steins;Gate 0",
		"A: B: C",
		"re:zero",
		"漫画 2nd Season",
		"   ",
		"\t\nweird\r\nwhitespace\t",
	}
	for _, title := range titles {
		once := Normalize(title)
		assert.Equal(t, once, Normalize(once), title)
	}
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "naruto: shippuden", NormalizeQuery("  Naruto:   Shippuden "))
	// franchise markers are kept
	assert.Equal(t, "attack on titan season 2", NormalizeQuery("Attack on Titan Season 2"))
	assert.Equal(t, "", NormalizeQuery("   "))
}
