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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/lexresearch"
	"github.com/poiesic/lexresearch/ingest"
	"github.com/poiesic/lexresearch/reindex"
)

const shutdownGrace = 30 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	serverFlag := &cli.StringFlag{
		Name:    "server",
		Aliases: []string{"s"},
		Usage:   "Research server base URL (defaults to server.url from config)",
	}

	return &cli.App{
		Name:  "lexresearch",
		Usage: "Asynchronous multi-source legal research service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (default ./lexresearch.yaml)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the research HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB case-law index",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Load case-law passages from a JSONL file into the index",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSONL file of passages",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB case-law index",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of passages to embed per batch",
						Value: ingest.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N passages",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed batches",
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
				Name:   "reindex",
				Usage:  "Re-embed every passage in the index with the configured embedding model",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB case-law index",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL (overrides ai.embedding_host)",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name (overrides ai.embedding_model)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of passages to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N passages",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
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
				Name:      "submit",
				Usage:     "Submit a research query",
				ArgsUsage: "<query>",
				Action:    submitCommand,
				Flags: []cli.Flag{
					serverFlag,
					&cli.StringSliceFlag{
						Name:    "provider",
						Aliases: []string{"p"},
						Usage:   "Provider to query (legal_rag, websearch); repeatable",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Report format (markdown, json, html)",
					},
					&cli.StringFlag{
						Name:  "length",
						Usage: "Report length (brief, standard, comprehensive)",
					},
					&cli.IntFlag{
						Name:  "year-start",
						Usage: "Earliest case year",
					},
					&cli.IntFlag{
						Name:  "year-end",
						Usage: "Latest case year",
					},
					&cli.BoolFlag{
						Name:    "wait",
						Aliases: []string{"w"},
						Usage:   "Poll until the job finishes and print the report",
					},
					&cli.DurationFlag{
						Name:  "poll-interval",
						Usage: "Delay between status polls with --wait",
						Value: 2 * time.Second,
					},
				},
			},
			{
				Name:      "status",
				Usage:     "Show a job",
				ArgsUsage: "<job-id>",
				Action:    statusCommand,
				Flags:     []cli.Flag{serverFlag},
			},
			{
				Name:   "list",
				Usage:  "List jobs",
				Action: listCommand,
				Flags:  []cli.Flag{serverFlag},
			},
			{
				Name:      "delete",
				Usage:     "Delete a job",
				ArgsUsage: "<job-id>",
				Action:    deleteCommand,
				Flags:     []cli.Flag{serverFlag},
			},
			{
				Name:      "report",
				Usage:     "Print the report of a completed job",
				ArgsUsage: "<job-id>",
				Action:    reportCommand,
				Flags:     []cli.Flag{serverFlag},
			},
		},
	}
}

func serveCommand(c *cli.Context) error {
	v, err := loadSettings(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("db") {
		v.Set("index.path", c.String("db"))
	}
	if c.IsSet("addr") {
		v.Set("server.addr", c.String("addr"))
	}

	cfg, err := serviceConfig(v)
	if err != nil {
		return err
	}
	cfg.Logger = slog.Default()

	svc, err := lexresearch.NewService(cfg)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := svc.ListenAndServe(ctx, v.GetString("server.addr"))

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := svc.Close(closeCtx); err != nil {
		slog.Error("error during shutdown", "err", err)
	}
	return serveErr
}

func ingestCommand(c *cli.Context) error {
	v, err := loadSettings(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("db") {
		v.Set("index.path", c.String("db"))
	}

	cfg, err := serviceConfig(v)
	if err != nil {
		return err
	}
	cfg.DisableWebSearch = true
	cfg.Logger = slog.Default()

	svc, err := lexresearch.NewService(cfg)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() {
		if err := svc.Close(context.Background()); err != nil {
			slog.Error("error closing service", "err", err)
		}
	}()

	loader, err := svc.NewLoader(
		ingest.WithBatchSize(c.Int("batch-size")),
		ingest.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")),
		ingest.WithProgress(c.App.ErrWriter, c.Int("report-interval")),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting ingest", "file", c.String("file"), "batchSize", c.Int("batch-size"))
	stats, err := loader.LoadFile(ctx, c.String("file"))
	if err != nil {
		return fmt.Errorf("ingest failed after %d passages: %w", stats.Stored, err)
	}

	fmt.Fprintf(c.App.Writer, "Stored %d passages (%d read, %d skipped)\n", stats.Stored, stats.Read, stats.Skipped)
	return nil
}

func reindexCommand(c *cli.Context) error {
	v, err := loadSettings(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("db") {
		v.Set("index.path", c.String("db"))
	}
	if c.IsSet("embedding-host") {
		v.Set("ai.embedding_host", c.String("embedding-host"))
	}
	if c.IsSet("embedding-model") {
		v.Set("ai.embedding_model", c.String("embedding-model"))
	}

	cfg, err := serviceConfig(v)
	if err != nil {
		return err
	}
	cfg.DisableWebSearch = true
	cfg.Logger = slog.Default()

	svc, err := lexresearch.NewService(cfg)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer func() {
		if err := svc.Close(context.Background()); err != nil {
			slog.Error("error closing service", "err", err)
		}
	}()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := svc.NewReindexer(&reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}, c.App.ErrWriter)

	n, err := r.Run(ctx)
	if err != nil {
		return fmt.Errorf("reindex failed after %d passages: %w", n, err)
	}
	return nil
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
