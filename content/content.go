// Package content is the read-only view of the content repository used by the
// LAN export server: the descriptive metadata of the models stored in each
// vault folder.
package content

import (
	"context"
	"fmt"

	"go.hackfix.me/modelvault/db/models"
	"go.hackfix.me/modelvault/db/types"
)

// Metadata describes a single model file.
type Metadata struct {
	FileName     string
	ThumbnailURL string
	SourceURL    string
}

// Repository maps a folder key to the metadata of the models in that folder.
type Repository interface {
	ListModelsInFolder(ctx context.Context, folderKey string) ([]Metadata, error)
}

// DBRepository is a Repository backed by the application database.
type DBRepository struct {
	db types.Querier
}

var _ Repository = (*DBRepository)(nil)

// NewDBRepository returns a repository that reads model records from d.
func NewDBRepository(d types.Querier) *DBRepository {
	return &DBRepository{db: d}
}

// ListModelsInFolder returns the metadata of all models stored under folderKey,
// sorted by file name.
func (r *DBRepository) ListModelsInFolder(ctx context.Context, folderKey string) ([]Metadata, error) {
	records, err := models.ModelsInFolder(ctx, r.db, folderKey)
	if err != nil {
		return nil, fmt.Errorf("failed listing models in folder '%s': %w", folderKey, err)
	}

	meta := make([]Metadata, len(records))
	for i, rec := range records {
		meta[i] = Metadata{
			FileName:     rec.FileName,
			ThumbnailURL: rec.ThumbnailURL.V,
			SourceURL:    rec.SourceURL.V,
		}
	}

	return meta, nil
}

// ByFileName indexes metadata by file name.
func ByFileName(meta []Metadata) map[string]Metadata {
	idx := make(map[string]Metadata, len(meta))
	for _, m := range meta {
		idx[m.FileName] = m
	}
	return idx
}
