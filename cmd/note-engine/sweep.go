package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/note-engine/internal/drive"
	"github.com/pdiddy/note-engine/internal/msauth"
	"github.com/pdiddy/note-engine/internal/notes"
	"github.com/pdiddy/note-engine/internal/sweep"
	"github.com/pdiddy/note-engine/pkg/types"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultUserAgent = "note-engine/0.1"

	defaultSourceFolder    = "Handwritten Notes"
	defaultDestFolder      = "second-brain/second-brain/_scans"
	defaultProcessedFolder = "Handwritten Notes/processed"
	defaultModel           = "openai/gpt-4.1"
	defaultEndpoint        = "https://models.github.ai/inference"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one ingestion pass over the drive source folder",
	Long: `Sweep lists the source folder once, extracts every scan not yet seen
(images and PDFs), uploads a markdown note plus the image to the
destination folder, and moves the original into the processed folder.
Failed files are logged and skipped; the rest of the batch continues.`,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().String("source-folder", "", "drive folder scanned for new notes")
	sweepCmd.Flags().String("dest-folder", "", "drive folder receiving markdown and images")
	sweepCmd.Flags().String("processed-folder", "", "drive folder originals are moved to")
	sweepCmd.Flags().String("model", "", "model identifier for extraction")
	sweepCmd.Flags().String("endpoint", "", "model completions endpoint base URL")
	sweepCmd.Flags().String("prompts-dir", "", "directory of prompt overrides (default: embedded prompts)")
	sweepCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 120s)")
	sweepCmd.Flags().Bool("verbose", false, "log at debug level")

	rootCmd.AddCommand(sweepCmd)
}

// resolve picks the first non-empty of flag, config/env, fallback.
func resolve(cmd *cobra.Command, flag, viperKey, fallback string) string {
	if v, _ := cmd.Flags().GetString(flag); v != "" {
		return v
	}
	if v := viper.GetString(viperKey); v != "" {
		return v
	}
	return fallback
}

func runSweep(cmd *cobra.Command, args []string) error {
	creds := msauth.Credentials{
		ClientID:     secretDefault("drive-client-id", viper.GetString("drive.client_id")),
		ClientSecret: secretDefault("drive-client-secret", viper.GetString("drive.client_secret")),
		RefreshToken: secretDefault("drive-refresh-token", viper.GetString("drive.refresh_token")),
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	apiKey := secretDefault("model-api-key", viper.GetString("completion.api_key"))

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	httpCfg := types.HTTPConfig{
		Timeout:   timeout,
		UserAgent: defaultUserAgent,
	}

	tokens, err := msauth.NewTokenSource(cmd.Context(), creds)
	if err != nil {
		return err
	}
	driveClient := drive.NewClient(tokens, types.DriveConfig{HTTPConfig: httpCfg})

	completer, err := notes.NewClient(types.CompletionConfig{
		HTTPConfig: httpCfg,
		Model:      resolve(cmd, "model", "completion.model", defaultModel),
		BaseURL:    resolve(cmd, "endpoint", "completion.base_url", defaultEndpoint),
		APIKey:     apiKey,
	})
	if err != nil {
		return err
	}

	prompts, err := loadPromptSet(cmd)
	if err != nil {
		return err
	}
	pipeline, err := notes.NewPipeline(completer, prompts)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sweepCfg := types.SweepConfig{
		SourceFolder:    resolve(cmd, "source-folder", "sweep.source_folder", defaultSourceFolder),
		DestFolder:      resolve(cmd, "dest-folder", "sweep.dest_folder", defaultDestFolder),
		ProcessedFolder: resolve(cmd, "processed-folder", "sweep.processed_folder", defaultProcessedFolder),
	}
	s, err := sweep.New(driveClient, pipeline, sweepCfg, logger)
	if err != nil {
		return err
	}

	count, err := s.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Processed %d note(s)\n", count)
	return nil
}

func loadPromptSet(cmd *cobra.Command) (*notes.Prompts, error) {
	if dir := resolve(cmd, "prompts-dir", "completion.prompts_dir", ""); dir != "" {
		return notes.LoadPrompts(dir)
	}
	return notes.DefaultPrompts()
}
