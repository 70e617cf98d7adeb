// Command arkivist answers natural-language questions grounded in a
// personal document archive.
package main

import (
	"fmt"
	"os"

	"github.com/arkivist-labs/arkivist-cli/internal/adapters/driven/ai"
	"github.com/arkivist-labs/arkivist-cli/internal/adapters/driven/config/file"
	"github.com/arkivist-labs/arkivist-cli/internal/adapters/driven/history/sqlite"
	"github.com/arkivist-labs/arkivist-cli/internal/adapters/driven/index"
	"github.com/arkivist-labs/arkivist-cli/internal/adapters/driving/cli"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
	"github.com/arkivist-labs/arkivist-cli/internal/core/services"
	"github.com/arkivist-labs/arkivist-cli/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore, ai.NewValidator())
	settings := settingsService.Get()

	backends, err := ai.CreateBackends(settings.Backend)
	if err != nil {
		return err
	}
	defer backends.Close()
	for _, warning := range backends.Warnings {
		logger.Warn("%s", warning)
	}

	selector := services.NewBackendSelector(
		backends.Remote, backends.Local, backends.Embedder, settings.Backend.Preference)

	indexer := index.New(index.Config{
		BaseURL: configStore.GetString("index.base_url"),
	})

	retriever := services.NewRetrievalCoordinator(
		selector, indexer, indexer, indexer, settings.Retrieval)

	cache := services.NewQueryCache(settings.Retrieval.CacheCapacity, settings.Retrieval.CacheTTL)

	promptStore, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("opening prompt store: %w", err)
	}
	defer promptStore.Close() //nolint:errcheck
	if err := promptStore.Watch(); err != nil {
		logger.Warn("Prompt auto-reload disabled: %v", err)
	}
	prompts := services.NewPromptBuilder(promptStore)

	// History is optional; a broken database must not take the CLI down.
	var history driven.HistoryStore
	if store, err := sqlite.NewStore(""); err != nil {
		logger.Warn("History disabled: %v", err)
	} else {
		history = store
		defer store.Close() //nolint:errcheck
	}

	answerService := services.NewAnswerService(
		selector, retriever, cache, prompts,
		indexer, indexer, history, indexer,
		settings.Generation)

	cli.SetVersion(version)
	cli.Wire(cli.Services{
		Answer:    answerService,
		Retrieval: answerService,
		Status:    answerService,
		Settings:  settingsService,
		History:   answerService,
	})

	return cli.Execute()
}
