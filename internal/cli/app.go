package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/kusy2009/Codelist-Genius/internal/agent"
	"github.com/kusy2009/Codelist-Genius/internal/assistant"
	"github.com/kusy2009/Codelist-Genius/internal/config"
	"github.com/kusy2009/Codelist-Genius/internal/datastore"
	"github.com/kusy2009/Codelist-Genius/internal/extract"
	"github.com/kusy2009/Codelist-Genius/internal/library"
	"github.com/kusy2009/Codelist-Genius/internal/logger"
)

// App carries what every command needs. Config is loaded by the root
// command before any subcommand runs.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	In     io.Reader
	Out    io.Writer
}

// NewApp returns an App bound to the process stdio.
func NewApp() *App {
	return &App{Logger: logger.Nop(), In: os.Stdin, Out: os.Stdout}
}

// DataStoreConfig maps the history settings onto a datastore.Config.
func DataStoreConfig(cfg config.HistoryConfig) datastore.Config {
	return datastore.Config{
		Type:             datastore.Type(cfg.Store),
		ConnectionString: cfg.ConnectionString,
	}
}

// Components is a fully wired assistant plus the resources behind it.
type Components struct {
	Assistant *assistant.Assistant
	History   datastore.DataStore
	closers   []io.Closer
}

// Close releases the model client and the history store.
func (c *Components) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// BuildComponents wires extractor, library client and history store from cfg.
func BuildComponents(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Components, error) {
	if err := cfg.RequireLibraryKey(); err != nil {
		return nil, err
	}

	model, modelCloser, err := agent.New(ctx, cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize language model: %w", err)
	}

	history, err := datastore.NewDataStore(DataStoreConfig(cfg.History))
	if err != nil {
		_ = modelCloser.Close()
		return nil, fmt.Errorf("failed to initialize data store: %w", err)
	}

	asst := assistant.New(
		extract.New(model, log),
		library.NewClient(cfg.Library, log),
		history,
		log,
	)
	return &Components{
		Assistant: asst,
		History:   history,
		closers:   []io.Closer{modelCloser, history},
	}, nil
}
