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

// Package content implements the genre based fallback model. Items absent
// from the collaborative model still resolve here as long as they carry
// genre metadata, which covers the cold-start path.
package content

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/log"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/dataset"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/metadata"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/model"
)

// term is a single weighted genre token inside a sparse vector. Terms are
// kept sorted by index so cosine can run as a merge.
type term struct {
	index  int
	weight float32
}

// Model holds TF-IDF weighted genre vectors per item.
type Model struct {
	itemDict *dataset.FreqDict[int]
	vectors  [][]term
	norms    []float32
}

// Build vectorizes the genre metadata of every item in the store. Weights are
// inverse document frequencies over the genre vocabulary; since a genre
// occurs at most once per item the term frequency contributes nothing.
func Build(store *metadata.Store) *Model {
	termDict := dataset.NewFreqDict[string]()
	itemDict := dataset.NewFreqDict[int]()
	tokenized := make([][]int, 0, store.Count())
	for _, item := range store.Items() {
		if len(item.Genres) == 0 {
			continue
		}
		itemDict.NotCount(item.ID)
		tokens := make([]int, 0, len(item.Genres))
		for _, genre := range item.Genres {
			tokens = append(tokens, termDict.Id(genre))
		}
		tokenized = append(tokenized, tokens)
	}
	// IDF(t) = log(N/freq(t)), floored to keep weights positive.
	idf := make([]float32, termDict.Count())
	for i := range idf {
		idf[i] = max(math32.Log(float32(itemDict.Count())/float32(termDict.Freq(i))), 1e-3)
	}
	m := &Model{
		itemDict: itemDict,
		vectors:  make([][]term, len(tokenized)),
		norms:    make([]float32, len(tokenized)),
	}
	for i, tokens := range tokenized {
		vector := make([]term, 0, len(tokens))
		for _, t := range tokens {
			vector = append(vector, term{index: t, weight: idf[t]})
		}
		sort.Slice(vector, func(a, b int) bool { return vector[a].index < vector[b].index })
		var sum float32
		for _, t := range vector {
			sum += t.weight * t.weight
		}
		m.vectors[i] = vector
		m.norms[i] = math32.Sqrt(sum)
	}
	log.Logger().Info("built content model",
		zap.Int("items", itemDict.Count()),
		zap.Int("genres", termDict.Count()))
	return m
}

// Has reports whether an item has a content vector.
func (m *Model) Has(itemID int) bool {
	_, ok := m.itemDict.Index(itemID)
	return ok
}

// SimilarTo ranks the n most similar items to the query item by cosine
// similarity of genre vectors. Ordering rules match the collaborative model:
// descending score, ties by ascending item id, zero-norm vectors skipped.
func (m *Model) SimilarTo(itemID int, n int) ([]model.Score, error) {
	queryIndex, ok := m.itemDict.Index(itemID)
	if !ok {
		return nil, errors.NotFoundf("item %d", itemID)
	}
	if m.norms[queryIndex] == 0 {
		return nil, errors.NotFoundf("item %d has a degenerate genre vector", itemID)
	}
	query := m.vectors[queryIndex]
	queryNorm := m.norms[queryIndex]
	scores := make([]model.Score, 0, len(m.vectors))
	for index, vector := range m.vectors {
		if index == queryIndex || m.norms[index] == 0 {
			continue
		}
		id, _ := m.itemDict.Value(index)
		scores = append(scores, model.Score{
			ID:    id,
			Score: dot(query, vector) / queryNorm / m.norms[index],
		})
	}
	model.SortScores(scores)
	if n < len(scores) {
		scores = scores[:n]
	}
	return scores, nil
}

// dot merges two sorted sparse vectors.
func dot(a, b []term) (ret float32) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].index == b[j].index:
			ret += a[i].weight * b[j].weight
			i++
			j++
		case a[i].index < b[j].index:
			i++
		default:
			j++
		}
	}
	return
}
