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

package main

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/log"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/config"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/dataset"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/model"
)

var commandTrain = &cobra.Command{
	Use:   "train",
	Short: "Train the collaborative model and write the serving artifact",
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		if err := train(conf); err != nil {
			log.Logger().Fatal("failed to train model", zap.Error(err))
		}
	},
}

func train(conf *config.Config) error {
	trainSet, err := dataset.LoadRatings(conf.Data.RatingsPath)
	if err != nil {
		return errors.Trace(err)
	}
	svd := model.NewSVD(conf.SVD)
	bar := progressbar.Default(int64(conf.SVD.NEpochs), "fit svd")
	fitConfig := model.NewFitConfig()
	fitConfig.OnEpoch = func(int) {
		_ = bar.Add(1)
	}
	svd.Fit(trainSet, fitConfig)
	return writeArtifact(svd, conf.Data.ModelPath)
}

// writeArtifact persists the model atomically: the artifact is written to a
// temporary file and renamed over the target, so a serving process never
// observes a partial artifact.
func writeArtifact(svd *model.SVD, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Trace(err)
	}
	temp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return errors.Trace(err)
	}
	defer os.Remove(temp.Name())
	if err := svd.Marshal(temp); err != nil {
		temp.Close()
		return errors.Trace(err)
	}
	if err := temp.Close(); err != nil {
		return errors.Trace(err)
	}
	if err := os.Rename(temp.Name(), path); err != nil {
		return errors.Trace(err)
	}
	log.Logger().Info("saved model artifact",
		zap.String("path", path),
		zap.Int("items", svd.ItemDict.Count()),
		zap.Int("rank", svd.Rank()))
	return nil
}
