package cli

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stress-backend/internal/scoring"
)

func newModelCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Validate and publish model artifacts.",
	}
	cmd.AddCommand(newModelValidateCommand(), newModelPushCommand(a))
	return cmd
}

func newModelValidateCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a model artifact against the schema and the feature order.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := loadModelFile(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid %s artifact, version %q\n", file, scoring.ModelFormat, m.Version())
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "model artifact to validate")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newModelPushCommand(a *app) *cobra.Command {
	var file, key string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Validate a model artifact and upload it to the model store.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			m, err := scoring.ParseModel(data)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			if strings.TrimSpace(key) == "" {
				key = a.serviceConfig().ModelKey
			}
			store, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			n, err := store.Put(cmd.Context(), key, "application/json", bytes.NewReader(data))
			if err != nil {
				return fmt.Errorf("upload model: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed model version %q to %s (%d bytes)\n", m.Version(), key, n)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "model artifact to upload")
	cmd.Flags().StringVar(&key, "key", "", "destination key (defaults to --model-key)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadModelFile(path string) (*scoring.Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := scoring.ParseModel(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
