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
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/poiesic/hybrid"
	"github.com/poiesic/hybrid/ai"
	"github.com/poiesic/hybrid/ai/openai"
	"github.com/poiesic/hybrid/corpus"
	"github.com/poiesic/hybrid/retrieval"
	"github.com/poiesic/hybrid/retry"
	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"
)

// newProvider is replaced in tests.
var newProvider = openai.NewProvider

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "hybrid",
		Usage: "Hybrid dense, keyword and graph retrieval over a local corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Embed and store pre-chunked passages from a JSONL fixture file",
				Action: loadCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSONL fixture file, one passage per line",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of passages to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N passages",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each embedding call",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "retrieve",
				Usage:     "Retrieve the passages most relevant to a query",
				ArgsUsage: "QUERY...",
				Action:    retrieveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   5,
					},
					&cli.BoolFlag{
						Name:  "no-graph",
						Usage: "Disable the graph source and boosting",
					},
					&cli.BoolFlag{
						Name:  "compress",
						Usage: "Compress each result's context to the query-relevant part",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the response as JSON",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:  "chat-host",
						Usage: "Chat service host URL for expansion, entities, reranking and compression",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "chat-model",
						Usage: "Chat model name",
						Value: "qwen2.5:3b",
					},
					&cli.IntFlag{
						Name:  "expansions",
						Usage: "Number of query variants to request",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "source-timeout",
						Usage: "Deadline for each retrieval source",
						Value: retrieval.DefaultConfig().SourceTimeout,
					},
					&cli.IntFlag{
						Name:  "rrf-k",
						Usage: "Reciprocal rank fusion constant",
						Value: retrieval.DefaultConfig().RRFK,
					},
					&cli.Float64Flag{
						Name:  "boost",
						Usage: "Score added to graph-confirmed candidates",
						Value: retrieval.DefaultConfig().BoostIncrement,
					},
					&cli.IntFlag{
						Name:  "rerank-window",
						Usage: "Number of candidates sent for relevance scoring",
						Value: retrieval.DefaultConfig().RerankWindow,
					},
					&cli.Float64Flag{
						Name:  "rate-limit",
						Usage: "Maximum chat calls per second during reranking and compression (0 for unlimited)",
					},
				},
			},
		},
	}
}

func loadCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("report-interval") <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	policy := retry.Policy{MaxAttempts: c.Int("max-retries"), BaseDelay: c.Duration("retry-delay")}
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid retry settings: %w", err)
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	engine, err := openEngine(c.String("db"), aiConfig)
	if err != nil {
		return err
	}
	defer engine.Close()

	loader, err := engine.Loader(
		corpus.WithBatchSize(c.Int("batch-size")),
		corpus.WithRetryPolicy(policy),
		corpus.WithProgress(c.App.ErrWriter, c.Int("report-interval")),
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", c.String("db"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", aiConfig.EmbeddingModel)

	stats, err := loader.LoadFile(ctx, c.String("file"))
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Loaded %d passages (%d already present) in %v\n",
		stats.Loaded, stats.Resumed, stats.Elapsed.Round(time.Millisecond))
	return nil
}

func retrieveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}

	cfg := retrieval.DefaultConfig()
	cfg.SourceTimeout = c.Duration("source-timeout")
	cfg.RRFK = c.Int("rrf-k")
	cfg.BoostIncrement = c.Float64("boost")
	cfg.RerankWindow = c.Int("rerank-window")

	pipelineOpts := []retrieval.Option{retrieval.WithConfig(cfg)}
	if limit := c.Float64("rate-limit"); limit > 0 {
		pipelineOpts = append(pipelineOpts, retrieval.WithRateLimiter(rate.NewLimiter(rate.Limit(limit), 1)))
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatHost(c.String("chat-host")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithExpansionCount(c.Int("expansions")),
	)
	engine, err := openEngine(c.String("db"), aiConfig, hybrid.WithPipelineOptions(pipelineOpts...))
	if err != nil {
		return err
	}
	defer engine.Close()

	resp, err := engine.Retrieve(ctx, query, c.Int("top-k"), !c.Bool("no-graph"), c.Bool("compress"))
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if c.Bool("json") {
		return printJSON(c.App.Writer, resp)
	}
	printResponse(c.App.Writer, resp)
	return nil
}

func printJSON(w io.Writer, resp *retrieval.Response) error {
	data, err := sonic.Marshal(resp)
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func openEngine(path string, aiConfig *ai.Config, opts ...hybrid.EngineOption) (*hybrid.Engine, error) {
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	provider, err := newProvider(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	opts = append([]hybrid.EngineOption{
		hybrid.WithAIConfig(aiConfig),
		hybrid.WithProvider(provider),
	}, opts...)
	engine, err := hybrid.NewEngine(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func printResponse(w io.Writer, resp *retrieval.Response) {
	fmt.Fprintf(w, "Found %d results (complexity: %s, variants: %d)\n",
		len(resp.Results), resp.Complexity, len(resp.Variants))

	for i, r := range resp.Results {
		fmt.Fprintf(w, "%d. %s  document=%s", i+1, r.ID, r.DocumentID)
		if r.Page != nil {
			fmt.Fprintf(w, " page=%d", *r.Page)
		}
		fmt.Fprintf(w, "  fused=%.4f", r.FusedScore)
		if r.RelevanceScore != nil {
			fmt.Fprintf(w, " relevance=%d", *r.RelevanceScore)
		}
		sources := make([]string, len(r.SourceTags))
		for j, s := range r.SourceTags {
			sources[j] = string(s)
		}
		fmt.Fprintf(w, "  sources=%s\n", strings.Join(sources, ","))

		if ev := r.GraphEvidence; ev != nil {
			fmt.Fprintf(w, "   graph: %s (%s, %s)", ev.MatchedEntity, ev.EntityType, ev.MatchKind)
			if ev.RelatedTo != "" {
				fmt.Fprintf(w, " via %s, %d shared documents", ev.RelatedTo, ev.SharedDocumentCount)
			}
			fmt.Fprintln(w)
		}

		text := r.Text
		if r.CompressedText != nil {
			text = *r.CompressedText
		}
		fmt.Fprintf(w, "   %s\n", text)
	}

	if len(resp.FailedSources) > 0 {
		failed := make([]string, len(resp.FailedSources))
		for i, s := range resp.FailedSources {
			failed[i] = string(s)
		}
		fmt.Fprintf(w, "failed_sources: %s\n", strings.Join(failed, ","))
	}
	if len(resp.SkippedStages) > 0 {
		skipped := make([]string, len(resp.SkippedStages))
		for i, s := range resp.SkippedStages {
			skipped[i] = string(s)
		}
		fmt.Fprintf(w, "skipped_stages: %s\n", strings.Join(skipped, ","))
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
