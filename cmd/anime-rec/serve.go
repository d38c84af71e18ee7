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

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/base/log"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/config"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/logics"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/metadata"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/model"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/model/content"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/search"
	"github.com/Dawit-Bonga/Anime-Recommendation-System/server"
)

var commandServe = &cobra.Command{
	Use:   "serve",
	Short: "Start the recommendation server",
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		configPath, _ := cmd.Flags().GetString("config")
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
		// All heavyweight state is loaded before the server accepts requests
		// and is immutable afterwards. A broken artifact is fatal.
		svd, err := loadArtifact(conf.Data.ModelPath)
		if err != nil {
			log.Logger().Fatal("failed to load model artifact",
				zap.String("path", conf.Data.ModelPath), zap.Error(err))
		}
		store, err := metadata.LoadItems(conf.Data.MetadataPath)
		if err != nil {
			log.Logger().Fatal("failed to load metadata",
				zap.String("path", conf.Data.MetadataPath), zap.Error(err))
		}
		contentModel := content.Build(store)
		searchIndex := search.NewIndex(store)
		recommender := logics.NewRecommender(store, svd, contentModel)
		restServer := server.NewRestServer(recommender, searchIndex, conf)
		restServer.StartHttpServer()
	},
}

func loadArtifact(path string) (*model.SVD, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	svd := new(model.SVD)
	if err := svd.Unmarshal(file); err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("loaded model artifact",
		zap.String("path", path),
		zap.Int("items", svd.ItemDict.Count()),
		zap.Int("rank", svd.Rank()))
	return svd, nil
}
