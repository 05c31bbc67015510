// Command shelfwise answers questions about a product catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/custodia-labs/shelfwise/internal/adapters/driven/ai"
	catalogfile "github.com/custodia-labs/shelfwise/internal/adapters/driven/catalog/file"
	"github.com/custodia-labs/shelfwise/internal/adapters/driven/config/env"
	configfile "github.com/custodia-labs/shelfwise/internal/adapters/driven/config/file"
	"github.com/custodia-labs/shelfwise/internal/adapters/driven/lock"
	storagefile "github.com/custodia-labs/shelfwise/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/shelfwise/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/shelfwise/internal/adapters/driving/cli"
	"github.com/custodia-labs/shelfwise/internal/core/domain"
	"github.com/custodia-labs/shelfwise/internal/core/ports/driven"
	"github.com/custodia-labs/shelfwise/internal/core/services"
	"github.com/custodia-labs/shelfwise/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// lockWait is how long a rebuild waits for another process's rebuild.
const lockWait = 2 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	cleanup, err := wire()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// wire builds the adapters and services and hands them to the CLI.
// AI provider failures are reported but do not stop settings and catalog
// commands from working.
func wire() (func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting home directory: %w", err)
	}
	baseDir := filepath.Join(home, ".shelfwise")
	if dir := os.Getenv("SHELFWISE_HOME"); dir != "" {
		baseDir = dir
	}
	dataDir := filepath.Join(baseDir, "data")

	// Settings: TOML file with environment overrides on top.
	configStore, err := configfile.NewConfigStore(baseDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settingsService.SetOverlay(env.NewOverlay(".env", filepath.Join(baseDir, ".env")))

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	// Catalog storage.
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	closers = append(closers, func() { store.Close() })

	catalogService := services.NewCatalogService(store.ProductStore(), catalogfile.NewSource())

	// Index storage.
	var (
		blobs      driven.BlobStore
		watchFiles []string
	)
	switch settings.Index.Backend {
	case domain.IndexBackendSQLite:
		blobs = store.BlobStore()
		watchFiles = []string{store.Path(), store.Path() + "-wal"}
	default:
		fileBlobs, err := storagefile.NewBlobStore(filepath.Join(dataDir, "index"))
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("opening index storage: %w", err)
		}
		blobs = fileBlobs
		watchFiles = []string{filepath.Join(fileBlobs.Dir(), settings.Index.Name+".index")}
	}

	rebuildLock, err := lock.New(filepath.Join(dataDir, settings.Index.Name+".lock"), lockWait)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("creating rebuild lock: %w", err)
	}

	cli.SetVersion(version)
	cli.SetWatchFiles(watchFiles...)

	// AI providers.
	aiServices, err := ai.Init(settings)
	if err != nil {
		logger.Warn("%v", err)
		cli.SetServices(cli.Services{
			Catalog:  catalogService,
			Settings: settingsService,
		})
		return cleanup, nil
	}
	closers = append(closers, aiServices.Close)
	cli.SetStartupWarnings(aiServices.Warnings...)

	generations := &services.Generations{}

	builder := services.NewIndexBuilder(aiServices.EmbeddingService, blobs, generations, services.IndexBuilderConfig{
		Name:        settings.Index.Name,
		Concurrency: settings.Index.Concurrency,
		Timeout:     settings.Index.RebuildTimeout,
	})
	builder.SetRebuildLock(rebuildLock)
	indexService := services.NewIndexService(builder, generations, store.ProductStore())

	var synthesizer *services.Synthesizer
	if aiServices.LLMService != nil {
		synthesizer = services.NewSynthesizer(aiServices.LLMService, services.SynthesizerConfig{
			MaxContextTokens: settings.Answer.MaxContextTokens,
			MaxAnswerTokens:  settings.Answer.MaxAnswerTokens,
			Temperature:      settings.Answer.Temperature,
			Timeout:          settings.Answer.Timeout,
		})
		prompts, err := configfile.NewPromptStore(filepath.Join(baseDir, "prompts"))
		if err != nil {
			logger.Warn("Using built-in prompts: %v", err)
		} else {
			synthesizer.SetPromptStore(prompts)
		}
	}

	answerService := services.NewAnswerService(generations, services.NewRetriever(aiServices.EmbeddingService), synthesizer)
	answerService.SetDefaultTopK(settings.Answer.TopK)

	if err := indexService.LoadIfPresent(context.Background()); err != nil {
		logger.Warn("Could not load the persisted index: %v", err)
	}

	cli.SetServices(cli.Services{
		Answer:   answerService,
		Catalog:  catalogService,
		Index:    indexService,
		Settings: settingsService,
	})

	return cleanup, nil
}
