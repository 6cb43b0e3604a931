// Package ctl implements portfolioctl, the operator command line for the
// portfolio API server.
package ctl

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/logging"
	"github.com/dmitrijs2005/portfolio/internal/server/config"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/repomanager"
	"github.com/spf13/cobra"
)

// Seams replaced in tests.
var (
	loadConfig = config.LoadConfig
	openDB     = func(ctx context.Context, dsn string) (*sql.DB, error) {
		return dbx.Open(ctx, repomanager.DriverName, dsn, dbx.DefaultPoolOptions)
	}
	newManager = repomanager.NewPostgresRepositoryManager
)

// rootOptions holds the persistent flags. The config layer reads -c and
// --env-file from the process arguments itself; they are declared here so
// cobra accepts them and lists them in help.
type rootOptions struct {
	configPath string
	envFile    string
	dsn        string
}

// session is an opened database plus the settings it was opened with.
type session struct {
	config  *config.Config
	db      *sql.DB
	manager repomanager.RepositoryManager
	logger  logging.Logger
}

func (o *rootOptions) open(ctx context.Context, logOut io.Writer) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if o.dsn != "" {
		cfg.DatabaseDSN = o.dsn
	}

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return &session{
		config:  cfg,
		db:      db,
		manager: newManager(),
		logger:  logging.NewJSON(logOut, cfg.LogLevel),
	}, nil
}

// NewRootCommand builds the portfolioctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "portfolioctl",
		Short:         "Operator tooling for the portfolio API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "path to JSON configuration file")
	pf.StringVar(&opts.envFile, "env-file", "", "path to dotenv file")
	pf.StringVarP(&opts.dsn, "dsn", "d", "", "database DSN, overrides configuration")

	cmd.AddCommand(
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newVersionCommand(),
	)
	return cmd
}
