package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	actx "go.hackfix.me/modelvault/app/context"
	aerrors "go.hackfix.me/modelvault/app/errors"
	"go.hackfix.me/modelvault/content"
	"go.hackfix.me/modelvault/vault"
	"go.hackfix.me/modelvault/web/server"
)

// Serve starts the vault export server.
type Serve struct {
	Address   string `arg:"" optional:"" help:"[host]:port to listen on. Default: ':8080'"`
	VaultRoot string `help:"Directory whose contents are served. Default: '<data-dir>/vault'"`
	//nolint:lll // Long struct tags are unavoidable.
	MaxConnections *int           `help:"Maximum number of connections served concurrently. 0 means unbounded."`
	ReadTimeout    *time.Duration `help:"Maximum time to receive a request. 0 means no limit."`
	WriteTimeout   *time.Duration `help:"Maximum time to send a response. 0 means no limit."`
	//nolint:lll // Long struct tags are unavoidable.
	MetadataKey string `help:"How vault folders map to model metadata folders. Valid values: leaf, path \n leaf: the folder's own name; path: the folder's path relative to the vault root"`
}

// Run the serve command.
func (c *Serve) Run(appCtx *actx.Context) error {
	keyMode, err := content.ParseKeyMode(c.MetadataKey)
	if err != nil {
		return aerrors.NewRuntimeError("invalid server options", err, "")
	}

	v, err := vault.New(appCtx.FS, c.VaultRoot)
	if err != nil {
		return aerrors.NewRuntimeError("failed opening vault", err,
			"set a valid directory with --vault-root or the 'vault_root' configuration option")
	}

	srv, err := server.New(appCtx, server.Options{
		Address:        c.Address,
		Vault:          v,
		Repository:     content.NewDBRepository(appCtx.DB),
		MetadataKey:    keyMode,
		MaxConnections: deref(c.MaxConnections),
		ReadTimeout:    deref(c.ReadTimeout),
		WriteTimeout:   deref(c.WriteTimeout),
	})
	if err != nil {
		return aerrors.NewRuntimeError("invalid server options", err, "")
	}

	if err = srv.Start(); err != nil {
		return aerrors.NewRuntimeError("failed starting web server", err, "")
	}
	appCtx.Logger.Debug("serving vault", "root", v.Root(), "metadata_key", string(keyMode))

	// Stop the server if a process signal is received, or the main context is
	// done.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case s := <-sigCh:
		slog.Debug("process received signal", "signal", s)
	case <-appCtx.Ctx.Done():
		slog.Debug("app context is done")
	}

	if err = srv.Stop(); err != nil {
		return fmt.Errorf("failed stopping web server: %w", err)
	}

	return nil
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
