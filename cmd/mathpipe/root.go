package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/realmath/problempipeline/internal/config"
	"github.com/realmath/problempipeline/internal/gcp"
)

// app carries the global flags and the configuration they resolve to.
type app struct {
	configFile  string
	project     string
	credentials string
	batchLimit  int
	verbose     bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "mathpipe",
		Short: "Math problem content pipeline",
		Long: `mathpipe segments exam PDFs into problem rows, tags and analyzes problem
categories, fetches the national school directory, and publishes problems and
schools to Firestore.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd.ErrOrStderr(), a.verbose)
			cfg, err := config.Load(a.configFile, a.overrides(cmd))
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "Path to a YAML config file")
	pf.StringVar(&a.project, "project", "", "Google Cloud / Firebase project ID")
	pf.StringVar(&a.credentials, "credentials", "", "Service account key file")
	pf.IntVar(&a.batchLimit, "batch-limit", 0, "Firestore writes per batch commit (max 500)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newExtractCmd(a),
		newTagCmd(a),
		newAnalyzeCmd(a),
		newSchoolsCmd(a),
		newProblemsCmd(a),
	)
	return root
}

// overrides returns the config keys for global flags the user set
// explicitly, so unset flags never mask file or environment values.
func (a *app) overrides(cmd *cobra.Command) map[string]any {
	o := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("project") {
		o["project_id"] = a.project
	}
	if flags.Changed("credentials") {
		o["credentials_file"] = a.credentials
	}
	if flags.Changed("batch-limit") {
		o["batch_limit"] = a.batchLimit
	}
	return o
}

// firestoreClient opens a client for the configured project.
func (a *app) firestoreClient(ctx context.Context) (*firestore.Client, error) {
	if err := a.cfg.RequireProject(); err != nil {
		return nil, err
	}
	client, err := gcp.NewFirestoreClient(ctx, a.cfg.ProjectID, a.cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("could not initialize Firestore: %w", err)
	}
	return client, nil
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).
		With("runId", uuid.New().String())
	slog.SetDefault(logger)
}
