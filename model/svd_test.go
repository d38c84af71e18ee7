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

package model

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/encoding"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/dataset"
)

// newTestSVD builds a model with fixed item embeddings by round-tripping
// through the artifact codec, which populates the norm cache.
func newTestSVD(t *testing.T, itemIDs []int, factors [][]float32) *SVD {
	src := &SVD{
		Params:     Params{NFactors: len(factors[0])},
		ItemDict:   dataset.FromValues(itemIDs),
		ItemFactor: factors,
	}
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, src.Marshal(buf))
	svd := new(SVD)
	assert.NoError(t, svd.Unmarshal(buf))
	return svd
}

func TestFit(t *testing.T) {
	// Items 1 and 2 are always rated together and alike; item 3 is rated high
	// exactly by the users who dislike item 1.
	trainSet := dataset.NewDataset()
	for u := 0; u < 6; u++ {
		user := fmt.Sprintf("fan%d", u)
		trainSet.AddRating(user, 1, 10)
		trainSet.AddRating(user, 2, 10)
	}
	for u := 0; u < 3; u++ {
		user := fmt.Sprintf("hater%d", u)
		trainSet.AddRating(user, 1, 1)
		trainSet.AddRating(user, 3, 10)
	}
	params := NewParams()
	params.NFactors = 4
	params.NEpochs = 100
	params.Lr = 0.05
	svd := NewSVD(params)
	epochs := 0
	svd.Fit(trainSet, &FitConfig{Verbose: 50, OnEpoch: func(int) { epochs++ }})
	assert.Equal(t, 100, epochs)
	assert.True(t, svd.Has(1))
	assert.False(t, svd.Has(99))

	scores, err := svd.SimilarTo(1, 2)
	assert.NoError(t, err)
	assert.Len(t, scores, 2)
	assert.Equal(t, 2, scores[0].ID)
	assert.Equal(t, 3, scores[1].ID)
	assert.Greater(t, scores[0].Score, scores[1].Score)
}

func TestSimilarTo(t *testing.T) {
	svd := newTestSVD(t, []int{1, 2, 3, 4, 5}, [][]float32{
		{1, 0},
		{1, 0},
		{0.6, 0.8},
		{0, 0},
		{2, 0},
	})
	scores, err := svd.SimilarTo(1, 10)
	assert.NoError(t, err)
	// items 2 and 5 tie at similarity 1 and order by ascending id; the
	// zero-norm item 4 is excluded
	assert.Len(t, scores, 3)
	assert.Equal(t, 2, scores[0].ID)
	assert.Equal(t, 5, scores[1].ID)
	assert.Equal(t, 3, scores[2].ID)
	assert.InDelta(t, 1, scores[0].Score, 1e-6)
	assert.InDelta(t, 0.6, scores[2].Score, 1e-6)

	// truncation
	scores, err = svd.SimilarTo(1, 1)
	assert.NoError(t, err)
	assert.Len(t, scores, 1)

	// unknown and degenerate queries
	_, err = svd.SimilarTo(99, 10)
	assert.True(t, errors.IsNotFound(err))
	_, err = svd.SimilarTo(4, 10)
	assert.True(t, errors.IsNotFound(err))
}

func TestEmbeddingOf(t *testing.T) {
	svd := newTestSVD(t, []int{7, 9}, [][]float32{{1, 2}, {3, 4}})
	embedding, ok := svd.EmbeddingOf(9)
	assert.True(t, ok)
	assert.Equal(t, []float32{3, 4}, embedding)
	_, ok = svd.EmbeddingOf(8)
	assert.False(t, ok)
}

func TestSortScores(t *testing.T) {
	scores := []Score{{ID: 3, Score: 0.5}, {ID: 1, Score: 0.5}, {ID: 2, Score: 0.9}}
	SortScores(scores)
	assert.Equal(t, []Score{{ID: 2, Score: 0.9}, {ID: 1, Score: 0.5}, {ID: 3, Score: 0.5}}, scores)
}

func TestMarshalRoundTrip(t *testing.T) {
	src := &SVD{
		Params:     Params{NFactors: 2, NEpochs: 20, Lr: 0.005, Reg: 0.02, InitStdDev: 0.1, RandomState: 42},
		ItemDict:   dataset.FromValues([]int{20, 1, 5}),
		ItemFactor: [][]float32{{1, 2}, {3, 4}, {5, 6}},
	}
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, src.Marshal(buf))
	dst := new(SVD)
	assert.NoError(t, dst.Unmarshal(buf))
	assert.Equal(t, src.Params, dst.Params)
	assert.Equal(t, src.ItemDict.Values(), dst.ItemDict.Values())
	assert.Equal(t, src.ItemFactor, dst.ItemFactor)
}

func TestUnmarshalRejectsBadArtifact(t *testing.T) {
	// wrong magic
	buf := bytes.NewBuffer(nil)
	assert.NoError(t, encoding.WriteString(buf, "NOT/A/MODEL"))
	err := new(SVD).Unmarshal(buf)
	assert.True(t, errors.IsNotValid(err))

	// truncated artifact
	src := &SVD{
		Params:     Params{NFactors: 2},
		ItemDict:   dataset.FromValues([]int{1, 2}),
		ItemFactor: [][]float32{{1, 2}, {3, 4}},
	}
	buf = bytes.NewBuffer(nil)
	assert.NoError(t, src.Marshal(buf))
	truncated := bytes.NewBuffer(buf.Bytes()[:buf.Len()-4])
	err = new(SVD).Unmarshal(truncated)
	assert.Error(t, err)
}
