package ports

import "go.trai.ch/synthcache/internal/core/domain"

// SettingsStore persists cache limits across runs so that `cache
// configure` survives beyond the process that ran it.
type SettingsStore interface {
	Load(cacheDir string) (domain.Limits, error)
	Save(cacheDir string, limits domain.Limits) error
}
