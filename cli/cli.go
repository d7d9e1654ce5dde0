package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/modelvault/app/config"
	actx "go.hackfix.me/modelvault/app/context"
)

// CLI is the command line interface of modelvault.
type CLI struct {
	Serve Serve `kong:"cmd,help='Start the vault export server.'"`
	Model Model `kong:"cmd,help='Manage model metadata shown in vault listings.'"`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// NOTE: kong.ConfigFlag isn't used, since configuration is managed
	// independently from the CLI.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the modelvault configuration file.'"`
	DataDir    string           `kong:"default='${dataDir}',help='Path to the directory where modelvault data is stored.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(appCtx *actx.Context, configFilePath, dataDir, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name("modelvault"),
		kong.Description("Share a vault of 3D model files over the local network."),
		kong.UsageOnError(),
		kong.DefaultEnvars("MODELVAULT"),
		kong.Writers(appCtx.Stdout, appCtx.Stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"dataDir":    dataDir,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	// Reset values from a previous run, since the same CLI can be reused.
	c.Serve = Serve{}
	c.Model = Model{}

	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they weren't
// already set.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	srv := cfg.Server
	if c.Serve.Address == "" && srv.Address.Valid {
		c.Serve.Address = srv.Address.V
	}
	if c.Serve.VaultRoot == "" && srv.VaultRoot.Valid {
		c.Serve.VaultRoot = srv.VaultRoot.V
	}
	if c.Serve.MaxConnections == nil && srv.MaxConnections.Valid {
		c.Serve.MaxConnections = &srv.MaxConnections.V
	}
	if c.Serve.ReadTimeout == nil && srv.ReadTimeout.Valid {
		c.Serve.ReadTimeout = &srv.ReadTimeout.V
	}
	if c.Serve.WriteTimeout == nil && srv.WriteTimeout.Valid {
		c.Serve.WriteTimeout = &srv.WriteTimeout.V
	}
	if c.Serve.MetadataKey == "" && srv.MetadataKey.Valid {
		c.Serve.MetadataKey = srv.MetadataKey.V
	}
}
