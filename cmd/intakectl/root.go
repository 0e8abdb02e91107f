package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/invoice-intake/internal/application/reconcile"
	"github.com/garyjia/invoice-intake/internal/config"
	"github.com/garyjia/invoice-intake/internal/infrastructure/document"
	"github.com/garyjia/invoice-intake/internal/infrastructure/remote"
	"github.com/garyjia/invoice-intake/internal/infrastructure/storage"
	"github.com/garyjia/invoice-intake/pkg/utils"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "intakectl",
	Short: "Preview, edit and track invoices held by the intake server",
	Long: `intakectl works against the invoice intake API.

It previews an invoice with its files, pastes spreadsheet ranges into the
product tables, builds upload product lists from a supporting workbook and
adds invoices to the LPO tracker.

The API address and token come from the config file or from
INTAKE_API_URL and INTAKE_API_TOKEN.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to the YAML configuration file")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds the collaborators shared by the subcommands
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *remote.Client
	previews *storage.LocalPreviewStorage
}

func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	// stdout carries command output
	logCfg := cfg.LoggerSettings()
	if logCfg.OutputPath == "" || logCfg.OutputPath == "stdout" {
		logCfg.OutputPath = "stderr"
	}
	logger, err := utils.NewLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		client:   remote.NewClient(cfg.Remote.BaseURL, remote.NewStaticSession(cfg.Remote.Token), cfg.Remote.Timeout, logger),
		previews: storage.NewLocalPreviewStorage(cfg.Storage.PreviewDir, logger),
	}, nil
}

func (a *app) workspace() *reconcile.Workspace {
	return reconcile.NewWorkspace(reconcile.Deps{
		Records:   a.client,
		Artifacts: a.client,
		Trackers:  a.client,
		Previews:  a.previews,
		Inspector: document.NewInspector(),
	}, utils.NewZapAdapter(a.logger))
}

func (a *app) close() {
	_ = a.logger.Sync()
}
