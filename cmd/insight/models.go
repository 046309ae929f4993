package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/newthinker/insight/internal/model"
	"github.com/newthinker/insight/internal/storage/artifact"
	"github.com/spf13/cobra"
)

var modelsSymbol string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage stored forecast models",
	Long: `Commands for listing, uploading and removing LSTM model artifacts in the
configured model storage (local directory or S3 bucket).`,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored model artifacts",
	Args:  cobra.NoArgs,
	RunE:  runModelsList,
}

var modelsPushCmd = &cobra.Command{
	Use:   "push <file>",
	Short: "Validate and upload a model artifact",
	Long: `Push uploads an exported network. With --symbol it becomes that symbol's
model, otherwise it replaces the generic model used for every other symbol.`,
	Args: cobra.ExactArgs(1),
	RunE: runModelsPush,
}

var modelsRmCmd = &cobra.Command{
	Use:   "rm <key>",
	Short: "Remove a model artifact",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsRm,
}

func init() {
	modelsPushCmd.Flags().StringVar(&modelsSymbol, "symbol", "", "symbol the model was trained on, e.g. TCS.NS")

	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsPushCmd)
	modelsCmd.AddCommand(modelsRmCmd)
	rootCmd.AddCommand(modelsCmd)
}

// openModelStorage loads the config and opens the model artifact storage.
func openModelStorage() (artifact.Storage, string, error) {
	log, err := newLogger()
	if err != nil {
		return nil, "", err
	}
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return nil, "", err
	}
	storage, err := openArtifacts(cfg.Models.Storage)
	if err != nil {
		return nil, "", fmt.Errorf("opening model storage: %w", err)
	}
	if storage == nil {
		return nil, "", fmt.Errorf("model storage is disabled (models.storage.type is none)")
	}
	return storage, cfg.Models.Generic, nil
}

func runModelsList(cmd *cobra.Command, args []string) error {
	storage, generic, err := openModelStorage()
	if err != nil {
		return err
	}

	keys, err := storage.List(context.Background(), "")
	if err != nil {
		return fmt.Errorf("listing models: %w", err)
	}
	if len(keys) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No models stored.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tKIND")
	for _, key := range keys {
		kind := "symbol"
		if key == generic {
			kind = "generic"
		}
		fmt.Fprintf(w, "%s\t%s\n", key, kind)
	}
	return w.Flush()
}

func runModelsPush(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading artifact: %w", err)
	}
	network, err := model.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("invalid artifact: %w", err)
	}

	storage, generic, err := openModelStorage()
	if err != nil {
		return err
	}

	key := generic
	if modelsSymbol != "" {
		key = model.ArtifactKey(modelsSymbol)
	}
	if key == "" {
		return fmt.Errorf("--symbol is required when no generic model name is configured")
	}

	if err := storage.Put(context.Background(), key, data); err != nil {
		return fmt.Errorf("uploading artifact: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored %s as %s (lookback %d)\n", network.Name(), key, network.Lookback())
	return nil
}

func runModelsRm(cmd *cobra.Command, args []string) error {
	storage, _, err := openModelStorage()
	if err != nil {
		return err
	}

	ctx := context.Background()
	exists, err := storage.Exists(ctx, args[0])
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("no model stored as %s", args[0])
	}
	if err := storage.Delete(ctx, args[0]); err != nil {
		return fmt.Errorf("removing model: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}
