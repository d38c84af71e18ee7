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
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/base"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/log"
)

// Dataset holds rating observations as dense index triples together with the
// dictionaries mapping raw user names and item ids to indices. Indices are
// assigned in first-seen order, which makes a load from the same file
// deterministic.
type Dataset struct {
	userDict    *FreqDict[string]
	itemDict    *FreqDict[int]
	userIndices []int32
	itemIndices []int32
	ratings     []float32
}

func NewDataset() *Dataset {
	return &Dataset{
		userDict: NewFreqDict[string](),
		itemDict: NewFreqDict[int](),
	}
}

func (d *Dataset) Count() int {
	return len(d.ratings)
}

func (d *Dataset) CountUsers() int {
	return d.userDict.Count()
}

func (d *Dataset) CountItems() int {
	return d.itemDict.Count()
}

func (d *Dataset) GetUserDict() *FreqDict[string] {
	return d.userDict
}

func (d *Dataset) GetItemDict() *FreqDict[int] {
	return d.itemDict
}

// Get returns the i-th rating observation as dense indices.
func (d *Dataset) Get(i int) (userIndex, itemIndex int32, rating float32) {
	return d.userIndices[i], d.itemIndices[i], d.ratings[i]
}

func (d *Dataset) AddRating(userID string, itemID int, rating float32) {
	d.userIndices = append(d.userIndices, int32(d.userDict.Id(userID)))
	d.itemIndices = append(d.itemIndices, int32(d.itemDict.Id(itemID)))
	d.ratings = append(d.ratings, rating)
}

// LoadRatings reads rating observations from a CSV file with columns
// (username, anime_id, score). A header line is detected and skipped.
// Malformed lines are skipped with a warning. An input yielding no valid
// rating is rejected.
func LoadRatings(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()

	d := NewDataset()
	skipped := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	err = base.ReadLines(scanner, ",", func(lineNumber int, fields []string) bool {
		if len(fields) < 3 {
			skipped++
			return true
		}
		itemID, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			// header line or malformed id
			if lineNumber > 0 {
				skipped++
			}
			return true
		}
		rating, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 32)
		if err != nil {
			skipped++
			return true
		}
		userID := strings.TrimSpace(fields[0])
		if userID == "" {
			skipped++
			return true
		}
		d.AddRating(userID, itemID, float32(rating))
		return true
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	if skipped > 0 {
		log.Logger().Warn("skipped malformed rating lines",
			zap.String("path", path), zap.Int("skipped", skipped))
	}
	if d.Count() == 0 {
		return nil, errors.BadRequestf("no valid ratings in %s", path)
	}
	log.Logger().Info("loaded ratings",
		zap.String("path", path),
		zap.Int("ratings", d.Count()),
		zap.Int("users", d.CountUsers()),
		zap.Int("items", d.CountItems()))
	return d, nil
}
