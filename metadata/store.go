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
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/base"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/log"
)

// Item is a single catalog record. FranchiseKey is derived from the display
// title at load time and groups an item with its sequels and seasons.
type Item struct {
	ID            int
	TitleEnglish  string
	TitleJapanese string
	Genres        []string
	FranchiseKey  string
}

// Title returns the display title: English when present, otherwise the
// romanized Japanese title.
func (item *Item) Title() string {
	if item.TitleEnglish != "" {
		return item.TitleEnglish
	}
	return item.TitleJapanese
}

// GenreSummary returns the genre list as a single comma separated string.
func (item *Item) GenreSummary() string {
	if len(item.Genres) == 0 {
		return "Unknown"
	}
	return strings.Join(item.Genres, ", ")
}

// Store is the immutable in-memory catalog. Items keep their file order so
// downstream consumers can iterate deterministically.
type Store struct {
	items []*Item
	byID  map[int]*Item
}

func NewStore() *Store {
	return &Store{byID: make(map[int]*Item)}
}

// Add inserts an item. Duplicate ids keep the first record seen, matching the
// load semantics of the metadata feed.
func (s *Store) Add(item *Item) {
	if _, exist := s.byID[item.ID]; exist {
		return
	}
	item.FranchiseKey = Normalize(item.Title())
	s.items = append(s.items, item)
	s.byID[item.ID] = item
}

// Get resolves an item id.
func (s *Store) Get(id int) (*Item, bool) {
	item, ok := s.byID[id]
	return item, ok
}

// Items returns all items in file order. The slice is shared and must not be
// modified.
func (s *Store) Items() []*Item {
	return s.items
}

func (s *Store) Count() int {
	return len(s.items)
}

// LoadItems reads the metadata feed from a CSV file. Columns are located by
// the header line; ID, Title_Romaji, Title_English and Genres are expected.
// Records without a parsable id are skipped with a warning.
func LoadItems(path string) (*Store, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()

	var (
		colID      = -1
		colRomaji  = -1
		colEnglish = -1
		colGenres  = -1
	)
	store := NewStore()
	skipped := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	err = base.ReadLines(scanner, ",", func(lineNumber int, fields []string) bool {
		if lineNumber == 0 {
			for i, name := range fields {
				switch strings.TrimSpace(name) {
				case "ID":
					colID = i
				case "Title_Romaji":
					colRomaji = i
				case "Title_English":
					colEnglish = i
				case "Genres":
					colGenres = i
				}
			}
			return true
		}
		if colID < 0 || colID >= len(fields) {
			skipped++
			return true
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[colID]))
		if err != nil {
			skipped++
			return true
		}
		item := &Item{ID: id}
		if colEnglish >= 0 && colEnglish < len(fields) {
			item.TitleEnglish = cleanTitle(fields[colEnglish])
		}
		if colRomaji >= 0 && colRomaji < len(fields) {
			item.TitleJapanese = cleanTitle(fields[colRomaji])
		}
		if colGenres >= 0 && colGenres < len(fields) {
			item.Genres = ParseGenres(fields[colGenres])
		}
		store.Add(item)
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if colID < 0 {
		return nil, errors.NotValidf("metadata file %s without ID column", path)
	}
	if store.Count() == 0 {
		return nil, errors.NotValidf("metadata file %s without items", path)
	}
	if skipped > 0 {
		log.Logger().Warn("skipped malformed metadata lines",
			zap.String("path", path), zap.Int("skipped", skipped))
	}
	log.Logger().Info("loaded metadata",
		zap.String("path", path), zap.Int("items", store.Count()))
	return store, nil
}

// cleanTitle trims a raw title field and maps missing values to empty.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	if strings.EqualFold(title, "nan") {
		return ""
	}
	return title
}

// ParseGenres canonicalizes a raw genre field. The feed encodes genres as a
// bracketed, quoted list; tokens are lower-cased and trimmed.
func ParseGenres(raw string) []string {
	cleaned := strings.NewReplacer("[", "", "]", "", "'", "", `"`, "").Replace(raw)
	var genres []string
	for _, token := range strings.Split(cleaned, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		if token != "" && token != "unknown" && token != "nan" {
			genres = append(genres, token)
		}
	}
	return genres
}
