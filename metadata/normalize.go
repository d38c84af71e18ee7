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
	"regexp"
	"strings"
)

// franchiseRules is the ordered table of season and sequel markers stripped
// from a title to obtain its franchise key. Rules are applied left to right;
// each one replaces all matches with the empty string.
var franchiseRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*season\s+\d+`),                // "Season 2"
	regexp.MustCompile(`(?i)\s*\d+\s*season`),                // "2 Season"
	regexp.MustCompile(`(?i)\s*\d+(?:st|nd|rd|th)\s*season`), // "2nd Season"
	regexp.MustCompile(`(?i)\s*final\s*season`),              // "Final Season"
	regexp.MustCompile(`(?i)\s*part\s+\d+`),                  // "Part 2"
	regexp.MustCompile(`\s*\d+$`),                            // trailing "2", "3"
	regexp.MustCompile(`(?i)\s*:\s*the\s+final\s+season`),    // ": The Final Season"
	regexp.MustCompile(`(?i)\s*:?\s*shippuden`),              // "Shippuden"
	regexp.MustCompile(`(?i)\s*:?\s*brotherhood`),            // "Brotherhood"
	regexp.MustCompile(`(?i)\s*:\s*next\s+generations`),      // ": Next Generations"
	regexp.MustCompile(`\s*:\s*[^:]+$`),                      // ": Anything" subtitle catch-all
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize maps a raw title to its franchise key: known season and sequel
// markers are stripped, the result is lower-cased, colons removed and
// whitespace collapsed. The rule table is re-applied until the string is
// stable, so stripping a subtitle can expose a trailing season number and
// still yield the same key as the already-stripped form. The function is
// total and idempotent; in the worst case the trimmed lower-cased input is
// returned unchanged.
func Normalize(title string) string {
	normalized := strings.ToLower(title)
	for {
		previous := normalized
		for _, rule := range franchiseRules {
			normalized = rule.ReplaceAllString(normalized, "")
		}
		normalized = strings.ReplaceAll(normalized, ":", "")
		normalized = whitespaceRun.ReplaceAllString(normalized, " ")
		normalized = strings.TrimSpace(normalized)
		if normalized == previous {
			return normalized
		}
	}
}

// NormalizeQuery canonicalizes a search query or title for matching: lower
// case, trimmed, internal whitespace collapsed. Franchise markers are kept so
// exact and partial matching operate on full titles.
func NormalizeQuery(query string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(query)), " ")
}
