package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/reqdesk/internal/app"
	"github.com/vedsharma/reqdesk/internal/config"
	"github.com/vedsharma/reqdesk/internal/format"
	httpclient "github.com/vedsharma/reqdesk/internal/http"
	"github.com/vedsharma/reqdesk/internal/logger"
	"github.com/vedsharma/reqdesk/internal/storage"
)

var (
	configPath string

	cfg     *config.Config
	store   *storage.Store
	session *app.Session
)

var rootCmd = &cobra.Command{
	Use:   "reqdesk",
	Short: "A desktop-style HTTP client for the terminal",
	Long: `reqdesk sends HTTP requests and keeps saved requests, history and
environments in a local store.

Examples:
  reqdesk get https://api.example.com/users
  reqdesk post https://api.example.com/users -d '{"name": "John"}' --save --name "Create user"
  reqdesk history
  reqdesk saved run "Create user"`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		closeAll()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show response headers")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (yaml, json or toml)")
}

// setup loads configuration and opens the store before any command runs
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	blobs, err := storage.NewBlobStore(cfg.StoreType, cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreType, err)
	}
	log.Debugw("store opened", "type", cfg.StoreType, "path", cfg.StorePath)
	store = storage.NewStore(blobs, log)

	transport := httpclient.NewClient(httpclient.ClientOptions{
		StrictStatus:    cfg.StrictStatus,
		MaxResponseSize: int64(cfg.MaxResponseBytes),
		Logger:          log,
	})
	dispatcher := httpclient.NewDispatcher(transport, httpclient.WithLogger(log))

	session = app.NewSession(dispatcher, store, app.Options{
		RecordHistory: cfg.RecordHistory,
		RedactHistory: cfg.RedactHistory,
	}, log)
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	closeAll()
	return nil
}

func closeAll() {
	if store != nil {
		if err := store.Close(); err != nil {
			logger.S.Warnw("failed to close store", "error", err)
		}
		store = nil
	}
	_ = logger.Close()
}

// exitWithError prints msg, releases the store and exits with status 1
func exitWithError(msg string, args ...any) {
	format.PrintError(fmt.Sprintf(msg, args...))
	closeAll()
	os.Exit(1)
}
