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
	"io"
	"sort"
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/base"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/encoding"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/floats"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/log"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/dataset"
)

const (
	artifactMagic   = "ANIREC/SVD"
	artifactVersion = int32(1)
)

// Params are the hyper-parameters of the SVD model.
type Params struct {
	NFactors    int     `mapstructure:"n_factors" toml:"n_factors"`
	NEpochs     int     `mapstructure:"n_epochs" toml:"n_epochs"`
	Lr          float32 `mapstructure:"lr" toml:"lr"`
	Reg         float32 `mapstructure:"reg" toml:"reg"`
	InitMean    float32 `mapstructure:"init_mean" toml:"init_mean"`
	InitStdDev  float32 `mapstructure:"init_std" toml:"init_std"`
	RandomState int64   `mapstructure:"random_state" toml:"random_state"`
}

// NewParams returns default hyper-parameters. The rank of the factorization
// defaults to 50.
func NewParams() Params {
	return Params{
		NFactors:    50,
		NEpochs:     20,
		Lr:          0.005,
		Reg:         0.02,
		InitMean:    0,
		InitStdDev:  0.1,
		RandomState: 42,
	}
}

// FitConfig controls the training loop.
type FitConfig struct {
	Verbose int             // log every Verbose epochs
	OnEpoch func(epoch int) // called after each epoch
}

func NewFitConfig() *FitConfig {
	return &FitConfig{Verbose: 10}
}

// Score is a scored candidate item.
type Score struct {
	ID    int
	Score float32
}

// SVD is a low-rank factorization of the user-item rating matrix, trained by
// stochastic gradient descent in the Funk-SVD manner. The prediction of a
// rating is the dot product of the user and item latent vectors. Only the
// item side is serialized: serving needs item embeddings and the id mapping,
// nothing else.
type SVD struct {
	Params Params
	// Model parameters
	ItemDict   *dataset.FreqDict[int]
	UserFactor [][]float32 // p_u
	ItemFactor [][]float32 // q_i
	// itemValid marks items whose embedding has positive norm. Zero-norm
	// embeddings have undefined cosine similarity and are excluded from
	// ranking.
	itemValid *bitset.BitSet
	itemNorms []float32
}

// NewSVD creates an untrained SVD model.
func NewSVD(params Params) *SVD {
	return &SVD{Params: params}
}

// Rank returns the dimensionality of the latent vectors.
func (svd *SVD) Rank() int {
	return svd.Params.NFactors
}

// Fit trains the model on a rating set.
func (svd *SVD) Fit(trainSet *dataset.Dataset, config *FitConfig) {
	if config == nil {
		config = NewFitConfig()
	}
	log.Logger().Info("fit svd",
		zap.Int("ratings", trainSet.Count()),
		zap.Int("users", trainSet.CountUsers()),
		zap.Int("items", trainSet.CountItems()),
		zap.Any("params", svd.Params))
	svd.ItemDict = dataset.FromValues(trainSet.GetItemDict().Values())
	rng := base.NewRandomGenerator(svd.Params.RandomState)
	svd.UserFactor = rng.NormalMatrix(trainSet.CountUsers(), svd.Params.NFactors, svd.Params.InitMean, svd.Params.InitStdDev)
	svd.ItemFactor = rng.NormalMatrix(trainSet.CountItems(), svd.Params.NFactors, svd.Params.InitMean, svd.Params.InitStdDev)
	// Create buffers
	a := make([]float32, svd.Params.NFactors)
	b := make([]float32, svd.Params.NFactors)
	for epoch := 1; epoch <= svd.Params.NEpochs; epoch++ {
		fitStart := time.Now()
		cost := float32(0)
		perm := rng.Perm(trainSet.Count())
		for _, i := range perm {
			userIndex, itemIndex, rating := trainSet.Get(i)
			userFactor := svd.UserFactor[userIndex]
			itemFactor := svd.ItemFactor[itemIndex]
			// Compute error: e_{ui} = r - \hat r
			upGrad := rating - floats.Dot(userFactor, itemFactor)
			cost += upGrad * upGrad
			// Update user latent factor
			floats.MulConstTo(itemFactor, upGrad, a)
			floats.MulConstAdd(userFactor, -svd.Params.Reg, a)
			copy(b, userFactor)
			floats.MulConstAdd(a, svd.Params.Lr, userFactor)
			// Update item latent factor with the pre-update user factor
			floats.MulConstTo(b, upGrad, a)
			floats.MulConstAdd(itemFactor, -svd.Params.Reg, a)
			floats.MulConstAdd(a, svd.Params.Lr, itemFactor)
		}
		if epoch%config.Verbose == 0 || epoch == svd.Params.NEpochs {
			log.Logger().Info("fit svd",
				zap.Int("epoch", epoch),
				zap.Int("epochs", svd.Params.NEpochs),
				zap.Float32("rmse", math32.Sqrt(cost/float32(trainSet.Count()))),
				zap.Duration("fit_time", time.Since(fitStart)))
		}
		if config.OnEpoch != nil {
			config.OnEpoch(epoch)
		}
	}
	svd.indexNorms()
}

// indexNorms caches item embedding norms and marks valid items.
func (svd *SVD) indexNorms() {
	svd.itemValid = bitset.New(uint(len(svd.ItemFactor)))
	svd.itemNorms = make([]float32, len(svd.ItemFactor))
	for i, factor := range svd.ItemFactor {
		svd.itemNorms[i] = floats.Norm(factor)
		if svd.itemNorms[i] > 0 {
			svd.itemValid.Set(uint(i))
		}
	}
}

// Has reports whether an item id was present in the training matrix.
func (svd *SVD) Has(itemID int) bool {
	if svd.ItemDict == nil {
		return false
	}
	_, ok := svd.ItemDict.Index(itemID)
	return ok
}

// EmbeddingOf returns the latent vector of an item.
func (svd *SVD) EmbeddingOf(itemID int) ([]float32, bool) {
	if svd.ItemDict == nil {
		return nil, false
	}
	index, ok := svd.ItemDict.Index(itemID)
	if !ok {
		return nil, false
	}
	return svd.ItemFactor[index], true
}

// SimilarTo ranks the n most similar items to the query item by cosine
// similarity of latent vectors. The query itself and items with zero-norm
// embeddings are excluded. Ties are broken by ascending item id.
func (svd *SVD) SimilarTo(itemID int, n int) ([]Score, error) {
	if svd.ItemDict == nil {
		return nil, errors.New("model is not trained")
	}
	queryIndex, ok := svd.ItemDict.Index(itemID)
	if !ok {
		return nil, errors.NotFoundf("item %d", itemID)
	}
	if !svd.itemValid.Test(uint(queryIndex)) {
		return nil, errors.NotFoundf("item %d has a degenerate embedding", itemID)
	}
	query := svd.ItemFactor[queryIndex]
	queryNorm := svd.itemNorms[queryIndex]
	scores := make([]Score, 0, len(svd.ItemFactor))
	for index, factor := range svd.ItemFactor {
		if index == queryIndex || !svd.itemValid.Test(uint(index)) {
			continue
		}
		id, _ := svd.ItemDict.Value(index)
		scores = append(scores, Score{
			ID:    id,
			Score: floats.Dot(query, factor) / queryNorm / svd.itemNorms[index],
		})
	}
	SortScores(scores)
	if n < len(scores) {
		scores = scores[:n]
	}
	return scores, nil
}

// SortScores orders candidates by descending score, ties by ascending id.
func SortScores(scores []Score) {
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})
}

// Marshal writes the serving artifact: magic, version, hyper-parameters, the
// item id mapping and the item embedding matrix.
func (svd *SVD) Marshal(w io.Writer) error {
	if err := encoding.WriteString(w, artifactMagic); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, artifactVersion); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, svd.Params); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteGob(w, svd.ItemDict.Values()); err != nil {
		return errors.Trace(err)
	}
	if err := encoding.WriteMatrix(w, svd.ItemFactor); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// Unmarshal reads a serving artifact. The item id mapping must be present and
// consistent with the embedding matrix, otherwise loading fails.
func (svd *SVD) Unmarshal(r io.Reader) error {
	magic, err := encoding.ReadString(r)
	if err != nil {
		return errors.Trace(err)
	}
	if magic != artifactMagic {
		return errors.NotValidf("model artifact magic %q", magic)
	}
	var version int32
	if err := encoding.ReadGob(r, &version); err != nil {
		return errors.Trace(err)
	}
	if version != artifactVersion {
		return errors.NotValidf("model artifact version %d", version)
	}
	if err := encoding.ReadGob(r, &svd.Params); err != nil {
		return errors.Trace(err)
	}
	if svd.Params.NFactors <= 0 {
		return errors.NotValidf("artifact rank %d", svd.Params.NFactors)
	}
	var itemIDs []int
	if err := encoding.ReadGob(r, &itemIDs); err != nil {
		return errors.Trace(err)
	}
	if len(itemIDs) == 0 {
		return errors.NotValidf("artifact with empty item mapping")
	}
	svd.ItemDict = dataset.FromValues(itemIDs)
	if svd.ItemDict.Count() != len(itemIDs) {
		return errors.NotValidf("artifact with duplicate item ids")
	}
	svd.ItemFactor = make([][]float32, len(itemIDs))
	for i := range svd.ItemFactor {
		svd.ItemFactor[i] = make([]float32, svd.Params.NFactors)
	}
	if err := encoding.ReadMatrix(r, svd.ItemFactor); err != nil {
		return errors.Trace(err)
	}
	svd.indexNorms()
	return nil
}
