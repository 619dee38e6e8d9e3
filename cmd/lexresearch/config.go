// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/poiesic/lexresearch"
	"github.com/poiesic/lexresearch/ai"
	"github.com/poiesic/lexresearch/orchestrator"
	"github.com/poiesic/lexresearch/retrieval"
)

const (
	envPrefix   = "LEXRESEARCH"
	configName  = "lexresearch"
	defaultAddr = ":8000"
)

// loadSettings reads the config file (explicit path, or lexresearch.yaml in
// the working directory) and overlays LEXRESEARCH_* environment variables.
// A missing default config file is not an error.
func loadSettings(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	aiDefaults := ai.DefaultConfig()
	v.SetDefault("ai.host", "")
	v.SetDefault("ai.embedding_host", aiDefaults.EmbeddingHost)
	v.SetDefault("ai.generation_host", aiDefaults.GenerationHost)
	v.SetDefault("ai.embedding_model", aiDefaults.EmbeddingModel)
	v.SetDefault("ai.generation_model", aiDefaults.GenerationModel)
	v.SetDefault("ai.api_key", aiDefaults.APIKey)
	v.SetDefault("ai.temperature", aiDefaults.Temperature)
	v.SetDefault("ai.max_tokens", 0)

	v.SetDefault("index.path", "lexresearch.db")
	v.SetDefault("index.in_memory", false)

	v.SetDefault("tavily.api_key", "")
	v.SetDefault("tavily.base_url", "")
	v.SetDefault("web.disabled", false)

	v.SetDefault("retrieval.top_k", retrieval.DefaultTopK)
	v.SetDefault("retrieval.max_results", retrieval.DefaultMaxResults)
	v.SetDefault("retrieval.domains", retrieval.DefaultDomains)

	v.SetDefault("jobs.max_concurrent", orchestrator.DefaultMaxConcurrentJobs)
	v.SetDefault("jobs.provider_timeout", orchestrator.DefaultProviderTimeout)
	v.SetDefault("jobs.ttl", time.Duration(0))
	v.SetDefault("jobs.strict_providers", true)

	v.SetDefault("server.addr", defaultAddr)
	v.SetDefault("server.url", "http://localhost:8000")
}

// serviceConfig maps settings onto a service configuration.
func serviceConfig(v *viper.Viper) (lexresearch.Config, error) {
	aiCfg := ai.NewConfig(
		ai.WithEmbeddingHost(v.GetString("ai.embedding_host")),
		ai.WithGenerationHost(v.GetString("ai.generation_host")),
		ai.WithEmbeddingModel(v.GetString("ai.embedding_model")),
		ai.WithGenerationModel(v.GetString("ai.generation_model")),
		ai.WithAPIKey(v.GetString("ai.api_key")),
		ai.WithTemperature(v.GetFloat64("ai.temperature")),
		ai.WithMaxTokens(v.GetInt("ai.max_tokens")),
	)
	if host := v.GetString("ai.host"); host != "" {
		ai.WithHost(host)(aiCfg)
	}
	if err := aiCfg.Validate(); err != nil {
		return lexresearch.Config{}, err
	}

	return lexresearch.Config{
		AI:                aiCfg,
		IndexPath:         v.GetString("index.path"),
		InMemoryIndex:     v.GetBool("index.in_memory"),
		TavilyAPIKey:      v.GetString("tavily.api_key"),
		TavilyBaseURL:     v.GetString("tavily.base_url"),
		DisableWebSearch:  v.GetBool("web.disabled"),
		TopK:              v.GetInt("retrieval.top_k"),
		MaxResults:        v.GetInt("retrieval.max_results"),
		Domains:           v.GetStringSlice("retrieval.domains"),
		MaxConcurrentJobs: v.GetInt("jobs.max_concurrent"),
		ProviderTimeout:   v.GetDuration("jobs.provider_timeout"),
		JobTTL:            v.GetDuration("jobs.ttl"),
		StrictProviders:   v.GetBool("jobs.strict_providers"),
	}, nil
}
