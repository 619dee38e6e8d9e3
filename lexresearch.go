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

package lexresearch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/lexresearch/ai"
	"github.com/poiesic/lexresearch/ai/openai"
	"github.com/poiesic/lexresearch/api"
	"github.com/poiesic/lexresearch/ingest"
	"github.com/poiesic/lexresearch/orchestrator"
	"github.com/poiesic/lexresearch/reindex"
	"github.com/poiesic/lexresearch/retrieval"
	"github.com/poiesic/lexresearch/retrieval/tavily"
	"github.com/poiesic/lexresearch/storage"
	"github.com/poiesic/lexresearch/storage/badger"
	"github.com/poiesic/lexresearch/storage/memory"
	"github.com/poiesic/lexresearch/synthesis"
)

// Config holds everything needed to assemble a research service.
type Config struct {
	// AI configures the OpenAI-compatible embedding and generation services.
	AI *ai.Config

	// IndexPath is the badger directory holding the case-law index.
	// Ignored when InMemoryIndex is set.
	IndexPath     string
	InMemoryIndex bool

	TavilyAPIKey  string
	TavilyBaseURL string

	// DisableWebSearch leaves the websearch provider unregistered, so the
	// service can run without a Tavily key.
	DisableWebSearch bool

	TopK       int
	MaxResults int
	Domains    []string

	MaxConcurrentJobs int
	ProviderTimeout   time.Duration
	JobTTL            time.Duration
	StrictProviders   bool

	Logger *slog.Logger
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		AI:                ai.DefaultConfig(),
		IndexPath:         "lexresearch.db",
		TopK:              retrieval.DefaultTopK,
		MaxResults:        retrieval.DefaultMaxResults,
		Domains:           retrieval.DefaultDomains,
		MaxConcurrentJobs: orchestrator.DefaultMaxConcurrentJobs,
		ProviderTimeout:   orchestrator.DefaultProviderTimeout,
		StrictProviders:   true,
	}
}

// Service wires storage, retrieval, synthesis and the orchestrator behind
// the HTTP API.
type Service struct {
	backend      *badger.Backend
	passages     *badger.PassageStore
	jobs         storage.JobStore
	provider     ai.Provider
	orchestrator *orchestrator.Orchestrator
	server       *api.Server
	logger       *slog.Logger
}

// ServiceOption replaces a collaborator of the service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	provider ai.Provider
	searcher retrieval.Searcher
}

// WithProvider supplies the AI provider instead of building an OpenAI one
// from Config.AI.
func WithProvider(p ai.Provider) ServiceOption {
	return func(o *serviceOptions) {
		o.provider = p
	}
}

// WithSearcher supplies the web searcher instead of a Tavily client.
func WithSearcher(s retrieval.Searcher) ServiceOption {
	return func(o *serviceOptions) {
		o.searcher = s
	}
}

// NewService assembles a Service from cfg.
func NewService(cfg Config, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AI == nil {
		cfg.AI = ai.DefaultConfig()
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(cfg.AI)
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenBackend(cfg.IndexPath, cfg.InMemoryIndex)
	if err != nil {
		provider.Close()
		return nil, err
	}

	svc := &Service{
		backend:  backend,
		provider: provider,
		jobs:     memory.NewJobStore(),
		logger:   logger,
	}
	if err := svc.assemble(cfg, options.searcher); err != nil {
		svc.Close(context.Background())
		return nil, err
	}
	return svc, nil
}

func (s *Service) assemble(cfg Config, searcher retrieval.Searcher) error {
	var err error
	s.passages, err = badger.NewPassageStore(s.backend, s.provider.Embedder())
	if err != nil {
		return err
	}

	retrievalOpts := []retrieval.Option{retrieval.WithLogger(s.logger)}
	if cfg.TopK > 0 {
		retrievalOpts = append(retrievalOpts, retrieval.WithTopK(cfg.TopK))
	}
	if cfg.MaxResults > 0 {
		retrievalOpts = append(retrievalOpts, retrieval.WithMaxResults(cfg.MaxResults))
	}
	if len(cfg.Domains) > 0 {
		retrievalOpts = append(retrievalOpts, retrieval.WithDomains(cfg.Domains))
	}

	caseLaw, err := retrieval.NewCaseLaw(s.passages, s.provider.Generator(), retrievalOpts...)
	if err != nil {
		return err
	}
	providers := []retrieval.Provider{caseLaw}

	if !cfg.DisableWebSearch {
		if searcher == nil {
			tavilyOpts := []tavily.Option{tavily.WithLogger(s.logger)}
			if cfg.TavilyBaseURL != "" {
				tavilyOpts = append(tavilyOpts, tavily.WithBaseURL(cfg.TavilyBaseURL))
			}
			client, err := tavily.NewClient(cfg.TavilyAPIKey, tavilyOpts...)
			if err != nil {
				return err
			}
			searcher = client
		}
		web, err := retrieval.NewWebSearch(searcher, s.provider.Generator(), retrievalOpts...)
		if err != nil {
			return err
		}
		providers = append(providers, web)
	}

	engine, err := synthesis.NewEngine(s.provider.Generator(), synthesis.WithLogger(s.logger))
	if err != nil {
		return err
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(s.logger),
		orchestrator.WithMaxConcurrentJobs(cfg.MaxConcurrentJobs),
		orchestrator.WithStrictProviders(cfg.StrictProviders),
	}
	if cfg.ProviderTimeout > 0 {
		orchOpts = append(orchOpts, orchestrator.WithProviderTimeout(cfg.ProviderTimeout))
	}
	if cfg.JobTTL > 0 {
		orchOpts = append(orchOpts, orchestrator.WithJobTTL(cfg.JobTTL))
	}
	s.orchestrator, err = orchestrator.New(s.jobs, engine, providers, orchOpts...)
	if err != nil {
		return err
	}

	s.server, err = api.NewServer(s.orchestrator, api.WithLogger(s.logger))
	return err
}

// Orchestrator returns the job orchestrator.
func (s *Service) Orchestrator() *orchestrator.Orchestrator {
	return s.orchestrator
}

// PassageStore returns the case-law vector store.
func (s *Service) PassageStore() *badger.PassageStore {
	return s.passages
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	return s.server
}

// NewLoader returns a loader that writes into the case-law index.
func (s *Service) NewLoader(opts ...ingest.Option) (*ingest.Loader, error) {
	opts = append([]ingest.Option{ingest.WithLogger(s.logger)}, opts...)
	return ingest.NewLoader(s.passages, opts...)
}

// NewReindexer returns a reindexer that re-embeds the case-law index with
// the service's embedder.
func (s *Service) NewReindexer(cfg *reindex.Config, progress io.Writer) *reindex.Reindexer {
	return reindex.NewReindexer(s.passages, s.provider.Embedder(), cfg, progress)
}

// ListenAndServe serves the API on addr until ctx is done.
func (s *Service) ListenAndServe(ctx context.Context, addr string) error {
	return s.server.ListenAndServe(ctx, addr)
}

// Close stops the orchestrator, waiting for running jobs until ctx ends,
// then releases storage and the AI provider.
func (s *Service) Close(ctx context.Context) error {
	var errs []error
	if s.orchestrator != nil {
		if err := s.orchestrator.Close(ctx); err != nil {
			s.logger.Error("error closing orchestrator", "err", err)
			errs = append(errs, err)
		}
	}
	if err := s.closeResources(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *Service) closeResources() error {
	var errs []error
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := s.jobs.Close(); err != nil {
		s.logger.Error("error closing job store", "err", err)
		errs = append(errs, err)
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
