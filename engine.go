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


// Package hybrid wires a local corpus backend, an AI provider and the
// retrieval pipeline into a single Engine.
package hybrid

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/ai/openai"
	"github.com/poiesic/hybrid/corpus"
	"github.com/poiesic/hybrid/retrieval"
	"github.com/poiesic/hybrid/storage/badger"
)

// Engine answers retrieval requests over a badger-backed corpus.
type Engine struct {
	backend  *badger.Corpus
	provider ai.AIProvider
	pipeline *retrieval.Pipeline
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	inMemory      bool
	minSimilarity float32
	pipelineOpts  []retrieval.Option
	logger        *slog.Logger
}

// WithAIConfig sets the configuration of the OpenAI-compatible provider.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		o.aiConfig = cfg
	}
}

// WithProvider uses provider instead of creating an OpenAI-compatible one.
// The Engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// InMemory keeps the corpus in memory; the path is ignored.
func InMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithMinSimilarity drops dense hits scoring below min.
func WithMinSimilarity(min float32) EngineOption {
	return func(o *engineOptions) {
		o.minSimilarity = min
	}
}

// WithPipelineOptions passes options through to the retrieval pipeline.
// They are applied after the Engine's own.
func WithPipelineOptions(opts ...retrieval.Option) EngineOption {
	return func(o *engineOptions) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine opens the corpus at path and builds the retrieval pipeline.
func NewEngine(path string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:      ai.DefaultConfig(),
		minSimilarity: badger.DefaultMinSimilarity,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	backend, err := badger.OpenCorpus(path, options.inMemory, provider.Embedder(), options.minSimilarity)
	if err != nil {
		provider.Close()
		return nil, err
	}

	pipelineOpts := append([]retrieval.Option{
		retrieval.WithSparseSearcher(backend.Keyword),
		retrieval.WithGraphStore(backend.Graph),
		retrieval.WithQueryExpansions(options.aiConfig.ExpansionCount),
		retrieval.WithLogger(options.logger),
	}, options.pipelineOpts...)

	pipeline, err := retrieval.NewPipeline(backend.Dense, provider, pipelineOpts...)
	if err != nil {
		backend.Close()
		provider.Close()
		return nil, err
	}

	return &Engine{
		backend:  backend,
		provider: provider,
		pipeline: pipeline,
		logger:   options.logger,
	}, nil
}

// Retrieve returns the topK passages most relevant to query.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int, useGraph, compress bool) (*retrieval.Response, error) {
	return e.pipeline.Retrieve(ctx, retrieval.Request{
		Query:    query,
		TopK:     topK,
		UseGraph: useGraph,
		Compress: compress,
	})
}

// Loader returns a fixture loader writing to the Engine's corpus, resuming
// named loads from the corpus checkpoints.
func (e *Engine) Loader(opts ...corpus.Option) (*corpus.Loader, error) {
	opts = append([]corpus.Option{
		corpus.WithCheckpoints(e.backend.Checkpoints),
		corpus.WithLogger(e.logger),
	}, opts...)
	return corpus.NewLoader(e.backend.Passages, e.provider.Embedder(), opts...)
}

// Pipeline returns the retrieval pipeline.
func (e *Engine) Pipeline() *retrieval.Pipeline {
	return e.pipeline
}

// Corpus returns the underlying corpus backend.
func (e *Engine) Corpus() *badger.Corpus {
	return e.backend
}

// Close releases the worker pool, the provider and the backend, in that order.
func (e *Engine) Close() error {
	e.pipeline.Close()

	var errs []error
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
		errs = append(errs, err)
	}
	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
