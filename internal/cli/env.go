package cli

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aaronromeo/mailroom/internal/accounts"
	"github.com/aaronromeo/mailroom/internal/announcer"
	"github.com/aaronromeo/mailroom/internal/config"
	"github.com/aaronromeo/mailroom/internal/logging"
	"github.com/aaronromeo/mailroom/internal/mailroom"
	"github.com/aaronromeo/mailroom/internal/telemetry"
)

const configEnvVar = config.EnvConfig
const defaultEnvFile = ".env"

// environment is the state shared by every subcommand once flags are parsed.
type environment struct {
	cfg      config.Config
	log      *logrus.Logger
	svc      *mailroom.Service
	shutdown func(context.Context) error
}

func (e *environment) setup(cmd *cobra.Command) error {
	if err := loadEnvFile(); err != nil {
		return err
	}

	cfg, err := config.Load(resolveConfigPath(cmd))
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	level := cfg.Log.Level
	if verbose {
		level = logrus.DebugLevel.String()
	}
	log := logging.NewWithWriter(cmd.ErrOrStderr(), level, cfg.Log.Format)

	shutdown, err := telemetry.Setup(cmd.Context())
	if err != nil {
		return err
	}

	storeOpts := []accounts.Option{accounts.WithLogger(log)}
	if cfg.Store.Credentials == config.CredentialsKeyring {
		secrets, err := accounts.OpenKeyring(cfg.Store.KeyringDir)
		if err != nil {
			return err
		}
		storeOpts = append(storeOpts, accounts.WithSecrets(secrets))
	}

	e.cfg = cfg
	e.log = log
	e.shutdown = shutdown
	e.svc = mailroom.New(
		accounts.NewStore(cfg.Store.Path, storeOpts...),
		mailroom.WithLogger(log),
		mailroom.WithFetchLimit(cfg.Fetch.Limit),
		mailroom.WithAnnouncer(announcer.New(announcer.WithWebhookURL(config.WebhookURL()))),
	)
	log.WithField("store", cfg.Store.Path).Debug("configuration loaded")
	return nil
}

// close flushes telemetry. The command context may already be cancelled.
func (e *environment) close() error {
	if e.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.shutdown(ctx)
}

func (e *environment) summary() string {
	return config.Summary(e.cfg)
}

// resolveConfigPath returns the --config flag, falling back to MAILROOM_CONFIG.
// An empty result means built-in defaults.
func resolveConfigPath(cmd *cobra.Command) string {
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil || strings.TrimSpace(cfgPath) == "" {
		cfgPath = os.Getenv(configEnvVar)
	}
	return strings.TrimSpace(cfgPath)
}

func loadEnvFile() error {
	if _, err := os.Stat(defaultEnvFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(defaultEnvFile)
}
