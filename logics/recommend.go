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

// Package logics implements the hybrid recommendation flow on top of the
// collaborative and content models: per-seed model selection with cold-start
// fallback, batch aggregation across a watchlist, and the franchise pipeline
// that keeps one entry per franchise out of the ranked candidates.
package logics

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/metadata"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/model"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/model/content"
)

const (
	MethodCollaborative      = "collaborative"
	MethodContent            = "content"
	MethodBatchCollaborative = "batch_collaborative"
	MethodBatchContent       = "batch_content"
	MethodBatchMixed         = "batch_mixed"
)

// Candidate is a single recommendation in a response.
type Candidate struct {
	ID    int     `json:"id"`
	Title string  `json:"title"`
	Genre string  `json:"genre"`
	Score float32 `json:"score"`
}

// Result is the outcome of a recommendation request.
type Result struct {
	Candidates  []Candidate
	Method      string
	Message     string
	InputTitles []string
}

// Recommender wires the immutable startup state together. It is constructed
// once and shared read-only between requests.
type Recommender struct {
	store         *metadata.Store
	collaborative *model.SVD
	contentModel  *content.Model
}

func NewRecommender(store *metadata.Store, collaborative *model.SVD, contentModel *content.Model) *Recommender {
	return &Recommender{
		store:         store,
		collaborative: collaborative,
		contentModel:  contentModel,
	}
}

// similarTo obtains ranked similarities for a single seed, preferring the
// collaborative model and falling back to the content model for cold-start
// items. The reported method tells which model answered.
func (r *Recommender) similarTo(itemID int, n int) ([]model.Score, string, error) {
	if r.collaborative != nil && r.collaborative.Has(itemID) {
		scores, err := r.collaborative.SimilarTo(itemID, n)
		if err == nil {
			return scores, MethodCollaborative, nil
		}
		if !errors.IsNotFound(err) {
			return nil, "", errors.Trace(err)
		}
		// degenerate embedding, try the content model instead
	}
	if r.contentModel != nil && r.contentModel.Has(itemID) {
		scores, err := r.contentModel.SimilarTo(itemID, n)
		if err != nil {
			return nil, "", errors.Trace(err)
		}
		return scores, MethodContent, nil
	}
	return nil, "", errors.NotFoundf("item %d", itemID)
}

// Recommend returns the top k recommendations for a single seed item.
func (r *Recommender) Recommend(itemID int, k int) (*Result, error) {
	if k <= 0 {
		return nil, errors.BadRequestf("limit must be positive")
	}
	// Fetch more candidates than requested so the franchise pipeline has
	// headroom to discard sequels and duplicates.
	pool := max(50, 5*k)
	scores, method, err := r.similarTo(itemID, pool)
	if err != nil {
		return nil, errors.Trace(err)
	}
	candidates := r.pipeline(scores, mapset.NewThreadUnsafeSet(itemID), nil, k)
	message := "Using Collaborative Filtering (SVD)"
	if method == MethodContent {
		message = "Using Content-Based Filtering (TF-IDF)"
	}
	return &Result{
		Candidates: candidates,
		Method:     method,
		Message:    message,
	}, nil
}

// RecommendBatch aggregates recommendations across several seed items, e.g.
// a whole watchlist. Per-candidate scores are summed over the seeds that
// reached it; items no seed scored stay absent. Seeds that resolve in
// neither model are skipped, but if no seed resolves at all the request
// fails with a not-found error.
func (r *Recommender) RecommendBatch(itemIDs []int, k int, exclude []int) (*Result, error) {
	if len(itemIDs) == 0 {
		return nil, errors.BadRequestf("empty item list")
	}
	if k <= 0 {
		return nil, errors.BadRequestf("limit must be positive")
	}
	seeds := mapset.NewThreadUnsafeSet(itemIDs...)
	excluded := mapset.NewThreadUnsafeSet(exclude...)
	aggregated := make(map[int]float32)
	methods := mapset.NewThreadUnsafeSet[string]()
	resolved := 0
	for _, itemID := range seeds.ToSlice() {
		// Every seed contributes its full similarity vector.
		scores, method, err := r.similarTo(itemID, r.catalogSize())
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, errors.Trace(err)
		}
		resolved++
		methods.Add(method)
		for _, score := range scores {
			if !seeds.Contains(score.ID) {
				aggregated[score.ID] += score.Score
			}
		}
	}
	if resolved == 0 {
		return nil, errors.NotFoundf("none of the %d items", len(itemIDs))
	}
	ranked := make([]model.Score, 0, len(aggregated))
	for id, score := range aggregated {
		ranked = append(ranked, model.Score{ID: id, Score: score})
	}
	model.SortScores(ranked)
	candidates := r.pipeline(ranked, seeds, excluded, k)

	method := MethodBatchMixed
	if methods.Equal(mapset.NewThreadUnsafeSet(MethodCollaborative)) {
		method = MethodBatchCollaborative
	} else if methods.Equal(mapset.NewThreadUnsafeSet(MethodContent)) {
		method = MethodBatchContent
	}
	inputTitles := make([]string, 0, len(itemIDs))
	for _, itemID := range itemIDs {
		if item, ok := r.store.Get(itemID); ok {
			inputTitles = append(inputTitles, item.Title())
		}
	}
	if len(inputTitles) > 5 {
		inputTitles = inputTitles[:5]
	}
	plural := ""
	if len(itemIDs) > 1 {
		plural = "s"
	}
	return &Result{
		Candidates:  candidates,
		Method:      method,
		Message:     fmt.Sprintf("Based on %d anime%s in your list", len(itemIDs), plural),
		InputTitles: inputTitles,
	}, nil
}

func (r *Recommender) catalogSize() int {
	size := r.store.Count()
	if r.collaborative != nil && r.collaborative.ItemDict != nil {
		size = max(size, r.collaborative.ItemDict.Count())
	}
	return size
}

// pipeline filters ranked candidates: drop seeds and caller-excluded ids,
// drop candidates belonging to a seed's franchise, keep the single best
// candidate per franchise, then truncate to k. The input must already be
// sorted by descending score with ties on ascending id, so the first
// candidate seen for a franchise is the one to keep.
func (r *Recommender) pipeline(ranked []model.Score, seeds, excluded mapset.Set[int], k int) []Candidate {
	seedKeys := mapset.NewThreadUnsafeSet[string]()
	if seeds != nil {
		for _, id := range seeds.ToSlice() {
			if item, ok := r.store.Get(id); ok {
				seedKeys.Add(item.FranchiseKey)
			}
		}
	}
	seenKeys := mapset.NewThreadUnsafeSet[string]()
	candidates := make([]Candidate, 0, k)
	for _, score := range ranked {
		if len(candidates) >= k {
			break
		}
		if seeds != nil && seeds.Contains(score.ID) {
			continue
		}
		if excluded != nil && excluded.Contains(score.ID) {
			continue
		}
		item, ok := r.store.Get(score.ID)
		if !ok {
			// Known to a model but absent from metadata: no franchise key to
			// group by, keep it with a placeholder title.
			candidates = append(candidates, Candidate{
				ID:    score.ID,
				Title: fmt.Sprintf("Anime #%d", score.ID),
				Genre: "Unknown",
				Score: score.Score,
			})
			continue
		}
		if seedKeys.Contains(item.FranchiseKey) || seenKeys.Contains(item.FranchiseKey) {
			continue
		}
		seenKeys.Add(item.FranchiseKey)
		candidates = append(candidates, Candidate{
			ID:    score.ID,
			Title: item.Title(),
			Genre: item.GenreSummary(),
			Score: score.Score,
		})
	}
	return candidates
}

// Dedupe keeps the single best scoring candidate per franchise key. Ties keep
// the candidate with the lower item id. Candidates without metadata have no
// franchise and pass through untouched.
func (r *Recommender) Dedupe(candidates []Candidate) []Candidate {
	best := make(map[string]Candidate)
	order := make([]string, 0, len(candidates))
	var orphans []Candidate
	for _, candidate := range candidates {
		item, ok := r.store.Get(candidate.ID)
		if !ok {
			orphans = append(orphans, candidate)
			continue
		}
		key := item.FranchiseKey
		kept, exist := best[key]
		if !exist {
			best[key] = candidate
			order = append(order, key)
		} else if candidate.Score > kept.Score ||
			candidate.Score == kept.Score && candidate.ID < kept.ID {
			best[key] = candidate
		}
	}
	deduped := lo.Map(order, func(key string, _ int) Candidate {
		return best[key]
	})
	deduped = append(deduped, orphans...)
	sort.Slice(deduped, func(i, j int) bool {
		if deduped[i].Score != deduped[j].Score {
			return deduped[i].Score > deduped[j].Score
		}
		return deduped[i].ID < deduped[j].ID
	})
	return deduped
}
