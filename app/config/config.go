package config

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// Metadata key modes. See Server.MetadataKey.
const (
	MetadataKeyLeaf = "leaf"
	MetadataKeyPath = "path"
)

// DefaultAddress is the default address the server listens on.
const DefaultAddress = ":8080"

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Server Server

	fs   vfs.FileSystem
	path string
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}

	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// Server defines configuration options specific to the vault export server.
type Server struct {
	// Address is the network address in [host]:port format the server will listen on.
	Address sql.Null[string] `json:"address"`
	// VaultRoot is the directory whose contents are served.
	VaultRoot sql.Null[string] `json:"vault_root"`
	// MaxConnections is the maximum number of connections served concurrently.
	// 0 means unbounded.
	MaxConnections sql.Null[int] `json:"max_connections"`
	// ReadTimeout bounds the time to receive a request. 0 means no limit.
	// It serializes from/to time.Duration string values.
	ReadTimeout sql.Null[time.Duration] `json:"read_timeout"`
	// WriteTimeout bounds the time to send a response. 0 means no limit.
	// It serializes from/to time.Duration string values.
	WriteTimeout sql.Null[time.Duration] `json:"write_timeout"`
	// MetadataKey selects how vault directories map to content repository
	// folders: by the directory's own name ("leaf"), or by its path relative to
	// the vault root ("path").
	MetadataKey sql.Null[string] `json:"metadata_key"`
}

type cfgWrapper struct {
	Server srvCfgWrapper `json:"server"`
}
type srvCfgWrapper struct {
	Address        string `json:"address,omitempty"`
	VaultRoot      string `json:"vault_root,omitempty"`
	MaxConnections *int   `json:"max_connections,omitempty"`
	ReadTimeout    string `json:"read_timeout,omitempty"`
	WriteTimeout   string `json:"write_timeout,omitempty"`
	MetadataKey    string `json:"metadata_key,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{}

	if c.Server.Address.Valid {
		w.Server.Address = c.Server.Address.V
	}
	if c.Server.VaultRoot.Valid {
		w.Server.VaultRoot = c.Server.VaultRoot.V
	}
	if c.Server.MaxConnections.Valid {
		w.Server.MaxConnections = &c.Server.MaxConnections.V
	}
	if c.Server.ReadTimeout.Valid {
		w.Server.ReadTimeout = c.Server.ReadTimeout.V.String()
	}
	if c.Server.WriteTimeout.Valid {
		w.Server.WriteTimeout = c.Server.WriteTimeout.V.String()
	}
	if c.Server.MetadataKey.Valid {
		w.Server.MetadataKey = c.Server.MetadataKey.V
	}

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types and parse duration strings into time.Duration values.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	if w.Server.Address != "" {
		c.Server.Address = sql.Null[string]{V: w.Server.Address, Valid: true}
	}
	if w.Server.VaultRoot != "" {
		c.Server.VaultRoot = sql.Null[string]{V: w.Server.VaultRoot, Valid: true}
	}
	if w.Server.MaxConnections != nil {
		if *w.Server.MaxConnections < 0 {
			return fmt.Errorf("invalid max connections %d: must be 0 or greater", *w.Server.MaxConnections)
		}
		c.Server.MaxConnections = sql.Null[int]{V: *w.Server.MaxConnections, Valid: true}
	}
	if w.Server.ReadTimeout != "" {
		dur, err := parseTimeout(w.Server.ReadTimeout)
		if err != nil {
			return fmt.Errorf("failed parsing server read timeout: %w", err)
		}
		c.Server.ReadTimeout = sql.Null[time.Duration]{V: dur, Valid: true}
	}
	if w.Server.WriteTimeout != "" {
		dur, err := parseTimeout(w.Server.WriteTimeout)
		if err != nil {
			return fmt.Errorf("failed parsing server write timeout: %w", err)
		}
		c.Server.WriteTimeout = sql.Null[time.Duration]{V: dur, Valid: true}
	}
	if w.Server.MetadataKey != "" {
		switch w.Server.MetadataKey {
		case MetadataKeyLeaf, MetadataKeyPath:
		default:
			return fmt.Errorf("invalid metadata key '%s': must be one of '%s', '%s'",
				w.Server.MetadataKey, MetadataKeyLeaf, MetadataKeyPath)
		}
		c.Server.MetadataKey = sql.Null[string]{V: w.Server.MetadataKey, Valid: true}
	}

	return nil
}

// SetDefaults sets default configuration values if they weren't set already.
// The vault root defaults to a directory within dataDir.
func (c *Config) SetDefaults(dataDir string) {
	if !c.Server.Address.Valid {
		c.Server.Address = sql.Null[string]{V: DefaultAddress, Valid: true}
	}
	if !c.Server.VaultRoot.Valid && dataDir != "" {
		c.Server.VaultRoot = sql.Null[string]{V: filepath.Join(dataDir, "vault"), Valid: true}
	}
	if !c.Server.MaxConnections.Valid {
		c.Server.MaxConnections = sql.Null[int]{V: 0, Valid: true}
	}
	if !c.Server.ReadTimeout.Valid {
		c.Server.ReadTimeout = sql.Null[time.Duration]{V: 0, Valid: true}
	}
	if !c.Server.WriteTimeout.Valid {
		c.Server.WriteTimeout = sql.Null[time.Duration]{V: 0, Valid: true}
	}
	if !c.Server.MetadataKey.Valid {
		c.Server.MetadataKey = sql.Null[string]{V: MetadataKeyLeaf, Valid: true}
	}
}

func parseTimeout(s string) (time.Duration, error) {
	dur, err := time.ParseDuration(s)
	if err != nil {
		//nolint:wrapcheck // Wrapped by caller.
		return 0, err
	}
	if dur < 0 {
		return 0, errors.New("must be 0 or greater")
	}
	return dur, nil
}
