package cli

import (
	"fmt"
	"time"

	"smokedash/internal/auth"
	"smokedash/internal/config"
	"smokedash/internal/database"
	"smokedash/internal/handlers"
	"smokedash/internal/logging"
	"smokedash/internal/middleware"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	DataDir    string
	ConfigPath string

	hasher auth.Hasher
	app    *App
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// App is everything a command needs, opened once per process.
type App struct {
	Config    config.Config
	Log       *logrus.Logger
	DB        *database.DB
	Login     *handlers.Login
	POS       *handlers.POS
	Inventory *handlers.Inventory
	Reports   *handlers.Reports
	System    *handlers.System
}

// NewRootCommand creates the root command for the pos CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pos",
		Short: "SmokeDash point of sale",
		Long:  "Till, stock, shift and customer-credit management for a single shop, kept in a local data directory.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "data directory (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default "+config.DefaultFile+" if present)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewProductCommand(opts))
	cmd.AddCommand(NewSaleCommand(opts))
	cmd.AddCommand(NewShiftCommand(opts))
	cmd.AddCommand(NewCustomerCommand(opts))
	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))

	return cmd
}

// App opens the data directory on first use.
func (o *RootOptions) App() (*App, error) {
	if o.app != nil {
		return o.app, nil
	}
	app, err := openApp(o)
	if err != nil {
		return nil, err
	}
	o.app = app
	return app, nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

func openApp(opts *RootOptions) (*App, error) {
	// 1. Configuration: file, environment, then flags
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	log := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.Dir)

	// 2. The data directory
	db, err := database.Open(database.Options{
		Dir:       cfg.DataDir,
		CacheSize: cfg.CacheSize,
		Hasher:    opts.hasher,
		Logger:    log,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open data directory", err)
	}

	// 3. Session signing
	secret := cfg.Session.Secret
	if secret == "" {
		if secret, err = auth.LoadOrCreateKey(db.Dir()); err != nil {
			return nil, WrapExitError(ExitCommandError, "session key", err)
		}
	}
	issuer, err := auth.NewTokenIssuer(secret, time.Duration(cfg.Session.TTLHours)*time.Hour)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "session key", err)
	}

	app := &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Login:     handlers.NewLogin(db, issuer, auth.NewSessionFile(db.Dir())),
		POS:       handlers.NewPOS(db),
		Inventory: handlers.NewInventory(db, cfg.Alerts.LowStock),
		Reports:   handlers.NewReports(db, cfg.Alerts.LowStock, cfg.Alerts.HighDebt),
		System:    handlers.NewSystem(db),
	}

	// 4. Startup consistency check
	if cfg.ReconcileOnStart {
		if status := app.System.Status(); status.Divergences > 0 {
			log.WithField("divergences", status.Divergences).Warn("data directory is inconsistent, run 'pos reconcile' for details")
		}
	}
	return app, nil
}

// requirePage is the PreRunE of every command that needs a session.
func requirePage(opts *RootOptions, page string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := opts.App()
		if err != nil {
			return err
		}
		guard := middleware.Chain(
			middleware.AuthMiddleware(func() middleware.SessionSource { return app.Login }),
			middleware.RequirePage(page),
		)
		return guard(cmd, args)
	}
}

// requireSession only checks that someone is logged in.
func requireSession(opts *RootOptions) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := opts.App()
		if err != nil {
			return err
		}
		return middleware.AuthMiddleware(func() middleware.SessionSource { return app.Login })(cmd, args)
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
