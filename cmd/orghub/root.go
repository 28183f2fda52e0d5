// orghub is the command-line client for the orghub organization API. It
// drives the same session lifecycle and HTTP endpoints the web frontend
// uses: sign in against Cognito, keep tokens fresh, and manage
// organizations and member roles.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"orghub/lib/clients"
	"orghub/lib/orgapi"
	"orghub/lib/session"
	"orghub/lib/util"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Config is read from the environment (and an optional .env file)
type Config struct {
	APIBaseURL      string `env:"ORGHUB_API_URL" envDefault:"http://localhost:3000"`
	CognitoClientID string `env:"ORGHUB_COGNITO_CLIENT_ID"`
	SessionFile     string `env:"ORGHUB_SESSION_FILE"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"error"`
}

// app wires the session manager and API client for the command handlers
type app struct {
	cfg     Config
	logger  *logrus.Logger
	store   session.Store
	session *session.Manager
	api     *orgapi.Client
}

func loadConfig() (Config, error) {
	// Missing .env is fine; the environment may carry everything
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if cfg.SessionFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.SessionFile = filepath.Join(home, ".orghub", "session.json")
	}
	return cfg, nil
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	util.SetLogLevel(logger, cfg.LogLevel)

	store, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	cognito := clients.NewCognitoIdentityProviderClient(false)
	manager := session.NewManager(cognito, store, cfg.CognitoClientID, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		session: manager,
		api:     orgapi.NewClient(cfg.APIBaseURL, store, logger),
	}, nil
}

// cognitoUserID returns the cached subject id, revalidating the session if
// it is not present yet
func (a *app) cognitoUserID(cmd *cobra.Command) (string, error) {
	id, err := a.store.Get(session.KeyCognitoUserID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	if err := a.session.CheckAuthentication(cmd.Context()); err != nil {
		return "", err
	}
	if !a.session.Authenticated() {
		return "", fmt.Errorf("not logged in, run `orghub login` first")
	}
	return a.session.Identity().CognitoUserID, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "orghub",
		Short:         "Manage orghub organizations and memberships",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newRegisterCmd(),
		newConfirmCmd(),
		newForgotPasswordCmd(),
		newOrgCmd(),
	)
	return root
}
