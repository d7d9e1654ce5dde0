package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	actx "go.hackfix.me/modelvault/app/context"
	aerrors "go.hackfix.me/modelvault/app/errors"
	"go.hackfix.me/modelvault/db/models"
)

// The Model command manages the metadata of models stored in the vault.
type Model struct {
	Add struct {
		Folder       string `arg:"" help:"Folder key: the folder name, or its path relative to the vault root. Use '.' for the vault root in path mode."`
		FileName     string `arg:"" help:"File name of the model."`
		ThumbnailURL string `help:"URL of the thumbnail image."`
		SourceURL    string `help:"URL of the page the model was obtained from."`
	} `kong:"cmd,help='Add model metadata.'"`
	Update struct {
		Folder       string  `arg:"" help:"Folder key: the folder name, or its path relative to the vault root. Use '.' for the vault root in path mode."`
		FileName     string  `arg:"" help:"File name of the model."`
		ThumbnailURL *string `help:"URL of the thumbnail image. An empty value removes it."`
		SourceURL    *string `help:"URL of the page the model was obtained from. An empty value removes it."`
	} `kong:"cmd,help='Update model metadata.'"`
	Rm struct {
		Folder   string `arg:"" help:"Folder key. Use '.' for the vault root in path mode."`
		FileName string `arg:"" help:"File name of the model."`
	} `kong:"cmd,help='Remove model metadata.'"`
	Ls struct {
		Folder string `arg:"" optional:"" help:"Only list models in this folder. Use '.' for the vault root in path mode."`
	} `kong:"cmd,help='List model metadata.'"`
}

// Run the model command.
func (c *Model) Run(kctx *kong.Context, appCtx *actx.Context) error {
	dbCtx := appCtx.DB.NewContext()

	switch strings.Fields(kctx.Command())[1] {
	case "add":
		m := models.NewModel(folderKey(c.Add.Folder), c.Add.FileName, c.Add.ThumbnailURL, c.Add.SourceURL)
		if err := m.Save(dbCtx, appCtx.DB, false); err != nil {
			return aerrors.NewRuntimeError("failed adding model", err, "")
		}
		appCtx.Logger.Info("added model", "folder", m.Folder, "file_name", m.FileName)
	case "update":
		m := &models.Model{Folder: folderKey(c.Update.Folder), FileName: c.Update.FileName}
		if err := m.Load(dbCtx, appCtx.DB); err != nil {
			return aerrors.NewRuntimeError("failed loading model", err, "")
		}
		thumb, source := m.ThumbnailURL.V, m.SourceURL.V
		if c.Update.ThumbnailURL != nil {
			thumb = *c.Update.ThumbnailURL
		}
		if c.Update.SourceURL != nil {
			source = *c.Update.SourceURL
		}
		upd := models.NewModel(m.Folder, m.FileName, thumb, source)
		if err := upd.Save(dbCtx, appCtx.DB, true); err != nil {
			return aerrors.NewRuntimeError("failed updating model", err, "")
		}
		appCtx.Logger.Info("updated model", "folder", upd.Folder, "file_name", upd.FileName)
	case "rm":
		m := &models.Model{Folder: folderKey(c.Rm.Folder), FileName: c.Rm.FileName}
		if err := m.Delete(dbCtx, appCtx.DB); err != nil {
			return aerrors.NewRuntimeError("failed removing model", err, "")
		}
		appCtx.Logger.Info("removed model", "folder", m.Folder, "file_name", m.FileName)
	case "ls":
		var (
			list []*models.Model
			err  error
		)
		if c.Ls.Folder != "" {
			list, err = models.ModelsInFolder(dbCtx, appCtx.DB, folderKey(c.Ls.Folder))
		} else {
			list, err = models.Models(dbCtx, appCtx.DB, nil)
		}
		if err != nil {
			return aerrors.NewRuntimeError("failed listing models", err, "")
		}

		if len(list) > 0 {
			if err = renderModels(appCtx.Stdout, list); err != nil {
				return fmt.Errorf("failed rendering table: %w", err)
			}
		}
	}

	return nil
}

// rootFolder is the argument denoting the empty folder key, which the vault
// root has in path mode.
const rootFolder = "."

func folderKey(arg string) string {
	if arg == rootFolder {
		return ""
	}
	return arg
}
