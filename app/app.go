package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"

	cfg "go.hackfix.me/modelvault/app/config"
	actx "go.hackfix.me/modelvault/app/context"
	aerrors "go.hackfix.me/modelvault/app/errors"
	"go.hackfix.me/modelvault/cli"
	"go.hackfix.me/modelvault/db"
)

// dbFileName is the name of the SQLite database file within the data directory.
const dbFileName = "modelvault.db"

// App is the application.
type App struct {
	name string
	ctx  *actx.Context
	cli  *cli.CLI
	// the logging level is set via the CLI, if the app was initialized with the
	// WithLogger option.
	logLevel *slog.LevelVar
	// whether the configuration was provided with WithConfig, in which case it's
	// not loaded from the filesystem.
	cfgFixed bool
}

// New initializes a new application. configPath and dataDir are the default
// values of the configuration file and data directory CLI flags.
func New(name, configPath, dataDir string, opts ...Option) (*App, error) {
	version, err := actx.GetVersion()
	if err != nil {
		return nil, err
	}

	defaultCtx := &actx.Context{
		Ctx:     context.Background(),
		FS:      memoryfs.New(),
		Logger:  slog.Default(),
		TimeNow: time.Now,
		Version: version,
	}
	app := &App{name: name, ctx: defaultCtx}

	for _, opt := range opts {
		opt(app)
	}

	ver := fmt.Sprintf("%s %s", app.name, app.ctx.Version.String())
	app.cli, err = cli.New(app.ctx, configPath, dataDir, ver)
	if err != nil {
		return nil, err
	}

	return app, nil
}

// Run initializes the application environment and starts execution of the
// application.
func (app *App) Run(args []string) error {
	if err := app.cli.Parse(args); err != nil {
		return err
	}

	if app.logLevel != nil {
		app.logLevel.Set(app.cli.Log.Level)
		slog.SetLogLoggerLevel(app.cli.Log.Level)
	}

	if !app.cfgFixed {
		app.ctx.Config = cfg.NewConfig(app.ctx.FS, app.cli.ConfigFile)
		if err := app.ctx.Config.Load(); err != nil {
			return aerrors.NewRuntimeError("failed loading configuration", err,
				fmt.Sprintf("check the contents of '%s'", app.cli.ConfigFile))
		}
	}
	app.ctx.Config.SetDefaults(app.cli.DataDir)

	if err := app.initDB(); err != nil {
		return err
	}

	app.cli.ApplyConfig(app.ctx.Config)

	if err := app.cli.Execute(app.ctx); err != nil {
		return err
	}

	return nil
}

// initDB opens the database in the data directory, unless one was provided
// with WithDB, and applies any pending migrations.
func (app *App) initDB() error {
	if app.ctx.DB == nil {
		if err := app.ctx.FS.MkdirAll(app.cli.DataDir, 0o700); err != nil {
			return aerrors.NewRuntimeError("failed creating data directory", err, "")
		}

		d, err := db.Open(app.ctx.Ctx, filepath.Join(app.cli.DataDir, dbFileName), app.ctx.TimeNow)
		if err != nil {
			return aerrors.NewRuntimeError("failed opening database", err, "")
		}
		app.ctx.DB = d
	}

	if err := app.ctx.DB.Migrate(app.ctx.Logger); err != nil {
		return aerrors.NewRuntimeError("failed migrating database", err, "")
	}

	return nil
}
