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

// Package search provides the dual-language title lookup index. English
// titles are preferred over Japanese ones and exact matches over partial
// ones; inside a tier results keep the catalog file order.
package search

import (
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/metadata"
)

type entry struct {
	title string // normalized full title, no franchise stripping
	item  *metadata.Item
}

// Index holds two ordered lookup structures over normalized titles, one per
// language. It is built once at startup and read-only afterwards.
type Index struct {
	english  []entry
	japanese []entry
}

// NewIndex builds the index from the metadata store.
func NewIndex(store *metadata.Store) *Index {
	index := &Index{}
	for _, item := range store.Items() {
		if title := metadata.NormalizeQuery(item.TitleEnglish); title != "" {
			index.english = append(index.english, entry{title: title, item: item})
		}
		if title := metadata.NormalizeQuery(item.TitleJapanese); title != "" {
			index.japanese = append(index.japanese, entry{title: title, item: item})
		}
	}
	return index
}

// Search returns up to limit items matching the query. Tiers in order: exact
// English, exact Japanese, partial English, partial Japanese. An item appears
// at most once, in its best tier.
func (index *Index) Search(query string, limit int) ([]*metadata.Item, error) {
	query = metadata.NormalizeQuery(query)
	if query == "" {
		return nil, errors.BadRequestf("empty query")
	}
	if limit <= 0 {
		return nil, errors.BadRequestf("limit must be positive")
	}
	var (
		results []*metadata.Item
		seen    = mapset.NewThreadUnsafeSet[int]()
	)
	collect := func(entries []entry, exact bool) {
		for _, e := range entries {
			if len(results) >= limit {
				return
			}
			if seen.Contains(e.item.ID) {
				continue
			}
			if exact && e.title == query || !exact && strings.Contains(e.title, query) {
				results = append(results, e.item)
				seen.Add(e.item.ID)
			}
		}
	}
	collect(index.english, true)
	collect(index.japanese, true)
	collect(index.english, false)
	collect(index.japanese, false)
	return results, nil
}
