// Package cli implements the stressctl command line: one-off and batch
// assessments, catalog inspection and model artifact management.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stress-backend/internal/bootstrap"
	"stress-backend/internal/scoring"
	"stress-backend/internal/shared/config"
	"stress-backend/internal/shared/storage/object"
	"stress-backend/internal/stress"
)

// All linker flags may be set at build time.
var (
	version = "dev"
	commit  = "none"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

// app carries the resolved configuration shared by every subcommand.
type app struct {
	v *viper.Viper
}

// NewRootCommand builds the stressctl command tree. Each call gets its own viper
// instance so commands can be constructed repeatedly in tests.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "stressctl",
		Short:         "Assess student academic stress from the command line.",
		Long:          `stressctl scores stress factors with the configured model, prints the severity band and the recommendations, and manages model artifacts.`,
		Version:       version + " (" + commit + ")",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default is ./.stressctl.yaml or $HOME/.stressctl.yaml)")
	flags.String("score-provider", "model", "score provider: model, remote or none")
	flags.String("model-store", "local", "model artifact store: local or s3")
	flags.String("model-dir", "./models", "directory holding model artifacts when model-store is local")
	flags.String("model-key", "stress_model.json", "object key of the model artifact")
	flags.String("score-service-url", "", "inference endpoint when score-provider is remote")
	flags.Duration("score-service-timeout", 0, "timeout for remote scoring calls")
	flags.String("aws-region", "", "AWS region for the s3 model store")
	flags.String("s3-bucket", "", "bucket for the s3 model store")
	flags.String("s3-prefix", "", "key prefix for the s3 model store")
	flags.String("sse-kms-key-id", "", "KMS key for server-side encryption on push")
	flags.String("locale", stress.DefaultLocale, "recommendation locale")
	flags.String("format", string(stress.FormatAnnotated), "recommendation format: annotated or plain")
	flags.StringSlice("coping-allow-list", nil, "healthy coping strategies; enables the coping rule when set")
	flags.StringP("output", "o", outputTable, "output format: table or json")
	flags.Bool("color", true, "colorize the stress category")
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		newAssessCommand(a),
		newBatchCommand(a),
		newRulesCommand(a),
		newModelCommand(a),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig merges defaults, the config file, STRESS_* env vars and flags.
func (a *app) loadConfig() error {
	if configFile := a.v.GetString("config"); configFile != "" {
		a.v.SetConfigFile(configFile)
	} else {
		a.v.SetConfigName(".stressctl")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		a.v.AddConfigPath("$HOME")
	}

	a.v.SetEnvPrefix("STRESS")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	switch a.output() {
	case outputTable, outputJSON:
	default:
		return fmt.Errorf("unknown output format %q", a.v.GetString("output"))
	}
	return nil
}

// serviceConfig maps CLI settings onto the service configuration so the CLI
// scores exactly the way the API does.
func (a *app) serviceConfig() config.Config {
	return config.Config{
		ScoreProvider:        strings.ToLower(strings.TrimSpace(a.v.GetString("score-provider"))),
		ModelStoreType:       strings.ToLower(strings.TrimSpace(a.v.GetString("model-store"))),
		ModelDir:             a.v.GetString("model-dir"),
		ModelKey:             a.v.GetString("model-key"),
		ScoreServiceURL:      a.v.GetString("score-service-url"),
		ScoreServiceTimeout:  a.v.GetDuration("score-service-timeout"),
		AWSRegion:            a.v.GetString("aws-region"),
		S3Bucket:             a.v.GetString("s3-bucket"),
		S3Prefix:             a.v.GetString("s3-prefix"),
		SSEKMSKeyID:          a.v.GetString("sse-kms-key-id"),
		RecommendationLocale: a.v.GetString("locale"),
		RecommendationFormat: a.v.GetString("format"),
		CopingAllowList:      a.v.GetStringSlice("coping-allow-list"),
	}
}

func (a *app) output() string {
	return strings.ToLower(strings.TrimSpace(a.v.GetString("output")))
}

func (a *app) useColor() bool {
	return a.v.GetBool("color")
}

func (a *app) store(ctx context.Context) (object.Store, error) {
	return bootstrap.BuildModelStore(ctx, a.serviceConfig())
}

// engine builds the scoring engine. Unlike the API, a provider that fails to load is an error.
func (a *app) engine(ctx context.Context) (*stress.Engine, error) {
	cfg := a.serviceConfig()
	var st object.Store
	if cfg.ScoreProvider == scoring.KindModel || cfg.ScoreProvider == "" {
		var err error
		st, err = a.store(ctx)
		if err != nil {
			return nil, err
		}
	}
	kind := cfg.ScoreProvider
	if kind == "" {
		kind = scoring.KindModel
	}
	provider, err := scoring.New(ctx, scoring.Options{
		Kind:          kind,
		Store:         st,
		ModelKey:      cfg.ModelKey,
		RemoteURL:     cfg.ScoreServiceURL,
		RemoteTimeout: cfg.ScoreServiceTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("load score provider: %w", err)
	}
	return bootstrap.BuildEngine(cfg, provider)
}
