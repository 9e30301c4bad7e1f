// Package settings persists cache limits across runs so that `cache
// configure` survives beyond the process that ran it.
package settings

import (
	"os"
	"time"

	"go.trai.ch/synthcache/internal/core/domain"
	"go.trai.ch/synthcache/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.SettingsStore = (*Store)(nil)

// document is the YAML schema of settings.yaml.
type document struct {
	MaxEntries    int   `yaml:"max_entries"`
	MaxSizeBytes  int64 `yaml:"max_size_bytes"`
	MaxAgeSeconds int64 `yaml:"max_age_seconds"`
}

// Store implements ports.SettingsStore using a YAML file within the
// cache directory.
type Store struct{}

// NewStore creates a Store.
func NewStore() *Store {
	return &Store{}
}

// Load reads settings.yaml within cacheDir. A missing file is not an
// error: it returns the built-in defaults.
func (s *Store) Load(cacheDir string) (domain.Limits, error) {
	path := domain.SettingsPath(cacheDir)
	data, err := os.ReadFile(path) //nolint:gosec // path constructed from trusted cache dir
	if err != nil {
		if os.IsNotExist(err) {
			return domain.DefaultLimits(), nil
		}
		return domain.Limits{}, zerr.Wrap(err, domain.ErrSettingsReadFailed.Error())
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.Limits{}, zerr.Wrap(err, domain.ErrSettingsParseFailed.Error())
	}

	limits := domain.DefaultLimits()
	if doc.MaxEntries > 0 {
		limits.MaxEntries = doc.MaxEntries
	}
	if doc.MaxSizeBytes > 0 {
		limits.MaxSizeByte = doc.MaxSizeBytes
	}
	if doc.MaxAgeSeconds > 0 {
		limits.MaxAge = time.Duration(doc.MaxAgeSeconds) * time.Second
	}
	return limits, nil
}

// Save writes limits to settings.yaml within cacheDir.
func (s *Store) Save(cacheDir string, limits domain.Limits) error {
	doc := document{
		MaxEntries:    limits.MaxEntries,
		MaxSizeBytes:  limits.MaxSizeByte,
		MaxAgeSeconds: int64(limits.MaxAge / time.Second),
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return zerr.Wrap(err, domain.ErrSettingsWriteFailed.Error())
	}

	if err := os.MkdirAll(cacheDir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrCacheDirCreateFailed.Error())
	}

	if err := os.WriteFile(domain.SettingsPath(cacheDir), data, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrSettingsWriteFailed.Error())
	}
	return nil
}
