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
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/poiesic/resolvit"
	"github.com/poiesic/resolvit/config"
	"github.com/poiesic/resolvit/core"
	"github.com/poiesic/resolvit/ingestion"
	"github.com/poiesic/resolvit/knowledge"
	"github.com/poiesic/resolvit/reembed"
	"github.com/poiesic/resolvit/resolve"
)

func main() {
	app := &cli.App{
		Name:  "resolvit",
		Usage: "Answer employee questions from an FAQ and document knowledge base",
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
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"RESOLVIT_CONFIG"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Resolve a single question",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "user",
						Usage: "User ID recorded with the turn",
						Value: "cli",
					},
					&cli.StringFlag{
						Name:  "conversation",
						Usage: "Conversation ID (a new one is generated when empty)",
					},
					&cli.BoolFlag{
						Name:  "trace",
						Usage: "Print every resolution step to stderr",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP chat intake",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
					&cli.StringFlag{
						Name:  "watch",
						Usage: "Knowledge file to import on start and re-import on change",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import FAQ entries and documents from a YAML knowledge file",
				ArgsUsage: "<file>",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of embedding workers",
						Value: 4,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Reembed all FAQ entries and documents with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
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
				Name:      "search",
				Usage:     "Run one lookup strategy and print its ranked matches",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "faq_search, ai_search, keyword_search or embedding_search",
						Value: core.StrategyFAQ.String(),
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum matches to print",
						Value: 5,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show knowledge base statistics",
				Action: statsCommand,
			},
			{
				Name:  "config",
				Usage: "Inspect or create configuration",
				Subcommands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: configShowCommand,
					},
					{
						Name:      "init",
						Usage:     "Write a default config file",
						ArgsUsage: "[path]",
						Action:    configInitCommand,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openSystem(c *cli.Context, opts ...resolvit.Option) (*resolvit.System, error) {
	settings, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	sys, err := resolvit.Open(settings, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	return sys, nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	var opts []resolvit.Option
	if c.Bool("trace") {
		opts = append(opts, resolvit.WithMonitor(resolve.NewTraceMonitor(os.Stderr)))
	}
	sys, err := openSystem(c, opts...)
	if err != nil {
		return err
	}
	defer sys.Close()

	conversationID := c.String("conversation")
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	resp, err := sys.Resolver().Resolve(c.Context, core.Query{
		Text:           question,
		UserID:         c.String("user"),
		ConversationID: conversationID,
	})
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	fmt.Println(resp.Text)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "Strategy: %s\n", resp.Strategy)
	if resp.Composer != "" {
		fmt.Fprintf(os.Stderr, "Composer: %s\n", resp.Composer)
	}
	fmt.Fprintf(os.Stderr, "Confidence: %.2f\n", resp.Confidence)
	for _, ref := range resp.ReferencedFAQs {
		fmt.Fprintf(os.Stderr, "FAQ: %s\n", ref.Question)
	}
	for _, ref := range resp.ReferencedDocuments {
		fmt.Fprintf(os.Stderr, "Document: %s\n", ref.Title)
	}
	fmt.Fprintf(os.Stderr, "Conversation: %s\n", conversationID)
	return nil
}

func serveCommand(c *cli.Context) error {
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	srv, err := sys.NewServer()
	if err != nil {
		return err
	}

	addr := c.String("addr")
	if addr == "" {
		addr = sys.Settings().Server.Addr
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if path := c.String("watch"); path != "" {
		pipeline, err := sys.NewIngestionPipeline()
		if err != nil {
			return err
		}
		defer pipeline.Release()

		result, err := importFile(ctx, pipeline, path)
		if err != nil {
			return err
		}
		slog.Info("knowledge file imported", "path", path, "faqs", len(result.FAQs), "documents", len(result.Documents))

		watcher, err := ingestion.NewWatcher(path, pipeline)
		if err != nil {
			return err
		}
		defer watcher.Close()
		g.Go(func() error {
			return watcher.Run(ctx)
		})
	}

	g.Go(func() error {
		slog.Info("listening", "addr", addr)
		return srv.Start(addr)
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// importFile loads a knowledge file and hands it to ingester.
func importFile(ctx context.Context, ingester ingestion.Ingester, path string) (*ingestion.IngestResult, error) {
	kf, err := ingestion.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge file: %w", err)
	}
	result, err := ingester.Ingest(ctx, kf)
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}
	return result, nil
}

func importCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a knowledge file is required")
	}
	if c.Int("workers") <= 0 {
		return fmt.Errorf("workers must be greater than 0")
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	pipeline, err := sys.NewIngestionPipeline(ingestion.WithPoolSize(c.Int("workers")))
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	result, err := importFile(c.Context, pipeline, path)
	if err != nil {
		return err
	}
	pipeline.Wait()

	fmt.Fprintf(os.Stderr, "Imported %d FAQ entries and %d documents from %s\n",
		len(result.FAQs), len(result.Documents), path)
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig, err := buildReembedConfig(
		c.Int("batch-size"),
		c.Int("report-interval"),
		c.Int("max-retries"),
		c.Duration("retry-delay"),
	)
	if err != nil {
		return err
	}

	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	reembedder, err := sys.NewReembedder(reembedConfig, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reembedder: %w", err)
	}

	ai := sys.Settings().AI
	fmt.Fprintf(os.Stderr, "Database: %s\n", sys.Settings().Database.Path)
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", ai.EmbeddingHost)
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", ai.EmbeddingModel)
	fmt.Fprintln(os.Stderr)

	if _, err := reembedder.Run(c.Context); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}

func buildReembedConfig(batchSize, reportInterval, maxRetries int, retryDelay time.Duration) (*reembed.Config, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch-size must be greater than 0")
	}
	if reportInterval <= 0 {
		return nil, fmt.Errorf("report-interval must be greater than 0")
	}
	if maxRetries <= 0 {
		return nil, fmt.Errorf("max-retries must be greater than 0")
	}
	if retryDelay < 0 {
		return nil, fmt.Errorf("retry-delay must not be negative")
	}
	return &reembed.Config{
		BatchSize:      batchSize,
		ReportInterval: reportInterval,
		MaxRetries:     maxRetries,
		RetryDelay:     retryDelay,
	}, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a query is required")
	}
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	matches, err := searchStrategy(c.Context, sys.Store(), c.String("strategy"), query, c.Int("limit"))
	if errors.Is(err, knowledge.ErrNoMatch) {
		fmt.Println("No matches.")
		return nil
	}
	if err != nil {
		return err
	}
	for _, m := range matches {
		fmt.Printf("%.3f  %s\n", m.Score, matchLabel(m))
	}
	return nil
}

// searchStrategy runs the named strategy alone, without floors between stages
// or composition.
func searchStrategy(ctx context.Context, store resolve.KnowledgeStore, name, query string, limit int) ([]core.MatchResult, error) {
	strategy, ok := core.ParseStrategy(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if strategy == core.StrategyFAQ {
		return store.FindFAQ(ctx, query, limit)
	}
	return store.FindDocuments(ctx, query, limit, strategy)
}

func matchLabel(m core.MatchResult) string {
	switch item := m.Item.(type) {
	case *core.FAQEntry:
		return "FAQ: " + item.Question
	case *core.Document:
		return "Document: " + item.Title
	}
	return fmt.Sprintf("%s %d", m.Item.Kind(), m.Item.ItemID())
}

func statsCommand(c *cli.Context) error {
	sys, err := openSystem(c)
	if err != nil {
		return err
	}
	defer sys.Close()

	stats, err := sys.Store().Stats(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("FAQ entries: %d (%d embedded)\n", stats.FAQCount, stats.EmbeddedFAQs)
	fmt.Printf("Documents:   %d (%d embedded)\n", stats.DocumentCount, stats.EmbeddedDocuments)
	fmt.Printf("Categories:  %s\n", strings.Join(stats.Categories, ", "))
	return nil
}

func configShowCommand(c *cli.Context) error {
	settings, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	return config.Write(os.Stdout, settings)
}

func configInitCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		path = "resolvit.yaml"
	}
	if err := config.WriteDefaultFile(path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}

func setupLogger(c *cli.Context) error {
	level, err := parseLevel(c.String("log-level"))
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	levelStr := strings.ToLower(s)
	switch levelStr {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}
}
