package catalog

import (
	"log/slog"
	"sync/atomic"

	"casecheck/internal/checks/models"
)

// Registry serves the current catalog and swaps it atomically on reload, so
// check types can change without a deploy. Readers never see a partial catalog.
type Registry struct {
	path    string
	current atomic.Pointer[Catalog]
	logger  *slog.Logger
}

// NewRegistry loads the catalog at path (built-in when empty).
func NewRegistry(path string, logger *slog.Logger) (*Registry, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	r := &Registry{path: path, logger: logger}
	r.current.Store(c)
	return r, nil
}

// NewStaticRegistry wraps an already-built catalog. Reload is a no-op.
func NewStaticRegistry(c *Catalog) *Registry {
	r := &Registry{}
	r.current.Store(c)
	return r
}

// Current returns the active catalog snapshot.
func (r *Registry) Current() *Catalog {
	return r.current.Load()
}

// Lookup resolves typeID against the active catalog.
func (r *Registry) Lookup(typeID models.CheckTypeID) (Definition, error) {
	return r.Current().Lookup(typeID)
}

// List returns the active catalog's definitions.
func (r *Registry) List() []Definition {
	return r.Current().List()
}

// Reload re-reads the catalog file. On failure the previous catalog stays active.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	c, err := Load(r.path)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("check type catalog reload failed", "path", r.path, "error", err)
		}
		return err
	}
	r.current.Store(c)
	if r.logger != nil {
		r.logger.Info("check type catalog reloaded", "path", r.path, "check_types", len(c.definitions))
	}
	return nil
}
