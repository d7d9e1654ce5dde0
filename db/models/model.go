package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.hackfix.me/modelvault/db/types"
)

// Model is the metadata of a single 3D-model file stored in a vault folder.
type Model struct {
	ID           uint64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Folder       string
	FileName     string
	ThumbnailURL sql.Null[string]
	SourceURL    sql.Null[string]
}

// NewModel returns a model record. Empty URLs are stored as NULL.
func NewModel(folder, fileName, thumbnailURL, sourceURL string) *Model {
	return &Model{
		Folder:       folder,
		FileName:     fileName,
		ThumbnailURL: nullString(thumbnailURL),
		SourceURL:    nullString(sourceURL),
	}
}

func (m *Model) key() string {
	return fmt.Sprintf("folder '%s' and file name '%s'", m.Folder, m.FileName)
}

// Save stores the model data in the database. When update is true the existing
// record with the same folder and file name is updated.
func (m *Model) Save(ctx context.Context, d types.Querier, update bool) error {
	if m.FileName == "" {
		return types.InvalidInputError{Msg: "model file name must be set"}
	}

	timeNow := d.TimeNow().UTC()
	if update {
		res, err := d.ExecContext(ctx,
			`UPDATE models
			SET updated_at = ?,
			    thumbnail_url = ?,
			    source_url = ?
			WHERE folder = ? AND file_name = ?`,
			timeNow, m.ThumbnailURL, m.SourceURL, m.Folder, m.FileName)
		if err != nil {
			return types.Err("model", m.key(), err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed getting affected rows: %w", err)
		}
		if n == 0 {
			return types.NoResultError{ModelName: "model", ID: m.key()}
		}
		m.UpdatedAt = timeNow

		return nil
	}

	res, err := d.ExecContext(ctx,
		`INSERT INTO models
		(id, created_at, updated_at, folder, file_name, thumbnail_url, source_url)
		VALUES (NULL, ?, ?, ?, ?, ?, ?)`,
		timeNow, timeNow, m.Folder, m.FileName, m.ThumbnailURL, m.SourceURL)
	if err != nil {
		return types.Err("model", m.key(), err)
	}

	m.ID, err = lastInsertID(res)
	if err != nil {
		return err
	}
	m.CreatedAt = timeNow
	m.UpdatedAt = timeNow

	return nil
}

// Load the model data from the database, using the folder and file name as
// the lookup key.
func (m *Model) Load(ctx context.Context, d types.Querier) error {
	if m.FileName == "" {
		return types.InvalidInputError{Msg: "model file name must be set"}
	}

	found, err := Models(ctx, d,
		types.NewFilter("m.folder = ? AND m.file_name = ?", m.Folder, m.FileName))
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return types.NoResultError{ModelName: "model", ID: m.key()}
	}
	*m = *found[0]

	return nil
}

// Delete removes the model with the same folder and file name from the
// database. It returns an error if the model doesn't exist.
func (m *Model) Delete(ctx context.Context, d types.Querier) error {
	if m.FileName == "" {
		return types.InvalidInputError{Msg: "model file name must be set"}
	}

	res, err := d.ExecContext(ctx,
		`DELETE FROM models WHERE folder = ? AND file_name = ?`, m.Folder, m.FileName)
	if err != nil {
		return types.Err("model", m.key(), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed getting affected rows: %w", err)
	}
	if n == 0 {
		return types.NoResultError{ModelName: "model", ID: m.key()}
	}

	return nil
}

// Models returns models from the database, sorted by folder and file name. An
// optional filter can be passed to limit the results.
func Models(ctx context.Context, d types.Querier, filter *types.Filter) (models []*Model, rerr error) {
	query := `SELECT
			m.id, m.created_at, m.updated_at, m.folder, m.file_name,
			m.thumbnail_url, m.source_url
		FROM models m
		WHERE %s
		ORDER BY m.folder ASC, m.file_name ASC`

	where := "1=1"
	args := []any{}
	if filter != nil {
		where = filter.Where
		args = filter.Args
	}

	rows, err := d.QueryContext(ctx, fmt.Sprintf(query, where), args...)
	if err != nil {
		return nil, types.LoadError{ModelName: "models", Err: err}
	}
	defer func() {
		if err = rows.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("failed closing models rows: %w", err)
		}
	}()

	models = make([]*Model, 0)
	for rows.Next() {
		var m Model
		err = rows.Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.Folder, &m.FileName,
			&m.ThumbnailURL, &m.SourceURL)
		if err != nil {
			return nil, types.ScanError{ModelName: "model", Err: err}
		}
		models = append(models, &m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over models rows: %w", err)
	}

	return models, nil
}

// ModelsInFolder returns all models stored in folder.
func ModelsInFolder(ctx context.Context, d types.Querier, folder string) ([]*Model, error) {
	return Models(ctx, d, types.NewFilter("m.folder = ?", folder))
}
