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

package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/steinfletcher/apitest"
	"github.com/stretchr/testify/assert"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/config"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/dataset"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/logics"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/metadata"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/model"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/model/content"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/search"
)

func newTestServer(t *testing.T) (*RestServer, http.Handler) {
	store := metadata.NewStore()
	store.Add(&metadata.Item{ID: 1, TitleEnglish: "Naruto", Genres: []string{"action"}})
	store.Add(&metadata.Item{ID: 2, TitleEnglish: "Naruto: Shippuden", Genres: []string{"action"}})
	store.Add(&metadata.Item{ID: 3, TitleEnglish: "Bleach", Genres: []string{"action"}})
	store.Add(&metadata.Item{ID: 4, TitleEnglish: "One Piece", Genres: []string{"action"}})
	src := &model.SVD{
		Params:     model.Params{NFactors: 2},
		ItemDict:   dataset.FromValues([]int{1, 2, 3, 4}),
		ItemFactor: [][]float32{{1, 0}, {0.5, 0.5}, {0.75, 0.25}, {0, 1}},
	}
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, src.Marshal(buf))
	svd := new(model.SVD)
	assert.NoError(t, svd.Unmarshal(buf))

	conf := &config.Config{}
	conf.Server.CacheTTL = time.Minute
	conf.Server.CacheEntries = 16
	recommender := logics.NewRecommender(store, svd, content.Build(store))
	s := NewRestServer(recommender, search.NewIndex(store), conf)
	container := restful.NewContainer()
	container.Add(s.WebService)
	return s, container
}

func marshal(t *testing.T, v interface{}) string {
	s, err := json.Marshal(v)
	assert.NoError(t, err)
	return string(s)
}

func decode(t *testing.T, result apitest.Result, v interface{}) {
	assert.NoError(t, json.NewDecoder(result.Response.Body).Decode(v))
}

func TestGetHealth(t *testing.T) {
	_, handler := newTestServer(t)
	apitest.New().
		Handler(handler).
		Get("/api/health").
		Expect(t).
		Status(http.StatusOK).
		Body(marshal(t, HealthResponse{Status: "alive"})).
		End()
}

func TestSearchItems(t *testing.T) {
	_, handler := newTestServer(t)
	apitest.New().
		Handler(handler).
		Get("/api/search").
		Query("query", "Naruto").
		Query("limit", "1").
		Expect(t).
		Status(http.StatusOK).
		Body(marshal(t, SearchResponse{Results: []SearchResult{{ID: 1, Title: "Naruto"}}})).
		End()
}

func TestSearchItemsBadRequest(t *testing.T) {
	_, handler := newTestServer(t)
	apitest.New().
		Handler(handler).
		Get("/api/search").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
	apitest.New().
		Handler(handler).
		Get("/api/search").
		Query("query", "naruto").
		Query("limit", "garbage").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestGetRecommend(t *testing.T) {
	s, handler := newTestServer(t)
	result := apitest.New().
		Handler(handler).
		Get("/api/recommend/1").
		Query("limit", "2").
		Expect(t).
		Status(http.StatusOK).
		End()
	var body RecommendResponse
	decode(t, result, &body)
	assert.Equal(t, logics.MethodCollaborative, body.Method)
	// item 2 shares the seed's franchise; items 3 and 4 remain
	assert.Len(t, body.Recommendations, 2)
	assert.Equal(t, 3, body.Recommendations[0].ID)
	assert.Equal(t, 4, body.Recommendations[1].ID)
	assert.Equal(t, 1, s.cache.Len())
}

func TestGetRecommendNotFound(t *testing.T) {
	_, handler := newTestServer(t)
	apitest.New().
		Handler(handler).
		Get("/api/recommend/99").
		Expect(t).
		Status(http.StatusNotFound).
		End()
}

func TestGetRecommendBadRequest(t *testing.T) {
	_, handler := newTestServer(t)
	apitest.New().
		Handler(handler).
		Get("/api/recommend/not_an_id").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
	apitest.New().
		Handler(handler).
		Get("/api/recommend/1").
		Query("limit", "-1").
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}

func TestBatchRecommend(t *testing.T) {
	_, handler := newTestServer(t)
	result := apitest.New().
		Handler(handler).
		Post("/api/recommend/batch").
		JSON(BatchRequest{IDs: []int{1, 4}, Exclude: []int{3}}).
		Expect(t).
		Status(http.StatusOK).
		End()
	var body RecommendResponse
	decode(t, result, &body)
	assert.Equal(t, logics.MethodBatchCollaborative, body.Method)
	assert.Equal(t, []string{"Naruto", "One Piece"}, body.InputTitles)
	for _, candidate := range body.Recommendations {
		assert.NotContains(t, []int{1, 3, 4}, candidate.ID)
	}
}

func TestBatchRecommendBadRequest(t *testing.T) {
	_, handler := newTestServer(t)
	apitest.New().
		Handler(handler).
		Post("/api/recommend/batch").
		JSON(BatchRequest{}).
		Expect(t).
		Status(http.StatusBadRequest).
		End()
}
