package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"nryli/cmd/buildCFG"
	"nryli/internal/mailer"
	"nryli/internal/repo"
)

var (
	configPath string
	envPath    string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nryli",
		Short: "Registration service for the National Rizal Youth Leadership Institute",
		Long: `nryli serves the public registration endpoint and the administrative
dashboard. Without a subcommand it starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env-file", "", "Optional .env file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newNotifyCmd())
	rootCmd.AddCommand(newStatsCmd())

	return rootCmd
}

// app is what every subcommand needs: config, logger and the record store.
type app struct {
	cfg  *config.Config
	log  zerolog.Logger
	db   *dbpg.DB
	repo repo.Repository
}

func bootstrap() (*app, error) {
	zlog.Init()
	log := zlog.Logger

	cfg := config.New()
	if err := cfg.Load(configPath, envPath, "NRYLI"); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	masterDSN, slaveDSNs, poolOptions, err := buildCFG.BuildDBConfig(cfg, &log)
	if err != nil {
		return nil, fmt.Errorf("failed to build DB config: %w", err)
	}
	db, err := dbpg.New(masterDSN, slaveDSNs, poolOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	if err := db.Master.Ping(); err != nil {
		_ = db.Master.Close()
		return nil, fmt.Errorf("DB ping failed: %w", err)
	}
	log.Info().Msg("Database connected successfully")

	repository, err := repo.NewRepository(db.Master, db, &log)
	if err != nil {
		_ = db.Master.Close()
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	return &app{cfg: cfg, log: log, db: db, repo: repository}, nil
}

func (a *app) Close() {
	if err := a.db.Master.Close(); err != nil {
		a.log.Error().Err(err).Msg("failed to close DB")
	}
}

func (a *app) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, buildCFG.BuildServerConfig(a.cfg, &a.log).RequestTimeout)
}

// notifier builds the confirmation notifier from mail.* settings.
func (a *app) notifier() (*mailer.Notifier, error) {
	mailCfg, err := buildCFG.BuildMailConfig(a.cfg, &a.log)
	if err != nil {
		return nil, err
	}
	eventCfg := buildCFG.BuildEventConfig(a.cfg)

	var sender mailer.Sender
	switch mailCfg.Provider {
	case buildCFG.MailResend:
		sender = mailer.NewResendSender(mailCfg.APIURL, mailCfg.APIKey, mailCfg.Timeout)
	case buildCFG.MailSMTP:
		sender = mailer.NewSMTPSender(mailCfg.SMTPHost, mailCfg.SMTPPort, mailCfg.SMTPUser, mailCfg.SMTPPassword)
	}

	return mailer.NewNotifier(
		sender,
		mailCfg.From,
		mailer.Event{Name: eventCfg.Name, ContactEmail: eventCfg.ContactEmail},
		mailCfg.Timeout,
		&a.log,
	), nil
}
