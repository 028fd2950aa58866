// Package modkit provides module wiring and core deps
package modkit

import (
	"dumpsift/internal/platform/config"
	"dumpsift/internal/platform/logger"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
}

// Named returns a copy whose logger carries a component field
func (d Deps) Named(component string) Deps {
	d.Log = logger.Named(d.Log, component)
	return d
}
