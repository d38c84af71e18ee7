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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	conf, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, "data/clean_ratings.csv", conf.Data.RatingsPath)
	assert.Equal(t, "data/myanilist.csv", conf.Data.MetadataPath)
	assert.Equal(t, "models/svd_model.bin", conf.Data.ModelPath)
	assert.Equal(t, "127.0.0.1", conf.Server.HTTPHost)
	assert.Equal(t, 8080, conf.Server.HTTPPort)
	assert.Equal(t, 10*time.Minute, conf.Server.CacheTTL)
	assert.Equal(t, 1024, conf.Server.CacheEntries)
	assert.Equal(t, 50, conf.SVD.NFactors)
	assert.Equal(t, 20, conf.SVD.NEpochs)
	assert.Equal(t, float32(0.005), conf.SVD.Lr)
	assert.Equal(t, int64(42), conf.SVD.RandomState)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.NoError(t, os.WriteFile(path, []byte(`
[data]
ratings_path = "ratings.csv"

[server]
http_port = 9000
cache_ttl = "5m"

[svd]
n_factors = 32
`), 0644))
	conf, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "ratings.csv", conf.Data.RatingsPath)
	assert.Equal(t, 9000, conf.Server.HTTPPort)
	assert.Equal(t, 5*time.Minute, conf.Server.CacheTTL)
	assert.Equal(t, 32, conf.SVD.NFactors)
	// defaults survive a partial file
	assert.Equal(t, "data/myanilist.csv", conf.Data.MetadataPath)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("ANIME_REC_SERVER_HTTP_PORT", "7000")
	conf, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, 7000, conf.Server.HTTPPort)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	assert.NoError(t, os.WriteFile(path, []byte(`
[server]
http_port = -1
`), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
