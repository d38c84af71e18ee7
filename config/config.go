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

package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/juju/errors"
	"github.com/spf13/viper"

	"github.com/Dawit-Bonga/Anime-Recommendation-System/model"
)

// Config is the configuration of both the serving process and the offline
// training job.
type Config struct {
	Data   DataConfig   `mapstructure:"data"`
	Server ServerConfig `mapstructure:"server"`
	SVD    model.Params `mapstructure:"svd"`
}

type DataConfig struct {
	// RatingsPath is the rating observations CSV consumed by `train`.
	RatingsPath string `mapstructure:"ratings_path"`
	// MetadataPath is the catalog metadata CSV consumed by `serve`.
	MetadataPath string `mapstructure:"metadata_path" validate:"required"`
	// ModelPath is the collaborative model artifact written by `train` and
	// loaded by `serve`.
	ModelPath string `mapstructure:"model_path" validate:"required"`
}

type ServerConfig struct {
	HTTPHost     string        `mapstructure:"http_host"`
	HTTPPort     int           `mapstructure:"http_port" validate:"gt=0"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	CacheEntries int           `mapstructure:"cache_entries" validate:"gte=0"`
}

func setDefaults() {
	viper.SetDefault("data.ratings_path", "data/clean_ratings.csv")
	viper.SetDefault("data.metadata_path", "data/myanilist.csv")
	viper.SetDefault("data.model_path", "models/svd_model.bin")
	viper.SetDefault("server.http_host", "127.0.0.1")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.cache_ttl", 10*time.Minute)
	viper.SetDefault("server.cache_entries", 1024)
	params := model.NewParams()
	viper.SetDefault("svd.n_factors", params.NFactors)
	viper.SetDefault("svd.n_epochs", params.NEpochs)
	viper.SetDefault("svd.lr", params.Lr)
	viper.SetDefault("svd.reg", params.Reg)
	viper.SetDefault("svd.init_mean", params.InitMean)
	viper.SetDefault("svd.init_std", params.InitStdDev)
	viper.SetDefault("svd.random_state", params.RandomState)
}

// LoadConfig reads the TOML configuration file, fills defaults and overrides
// from ANIME_REC_* environment variables, then validates the result. An empty
// path loads pure defaults.
func LoadConfig(path string) (*Config, error) {
	viper.Reset()
	setDefaults()
	viper.SetEnvPrefix("anime_rec")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return nil, errors.Trace(err)
		}
	}
	var conf Config
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	if err := validator.New().Struct(&conf); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}
