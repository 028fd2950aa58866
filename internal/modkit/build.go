package modkit

import (
	"net/http"

	phttp "dumpsift/internal/platform/net/http"
)

// Built is a plain struct with the fields modules care about
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
}

// Build applies Option funcs over defaults and returns a plain struct
func Build(name string, opts ...Option) Built {
	c := buildCfg{name: name}
	for _, o := range opts {
		o(&c)
	}
	return Built{
		Name:   c.name,
		Prefix: c.prefix,
		Mw:     append([]func(http.Handler) http.Handler(nil), c.mw...),
	}
}

// Mount registers fn under b.Prefix with b.Mw applied only to those routes
func (b Built) Mount(r phttp.Router, fn func(phttp.Router)) {
	r.Group(func(g phttp.Router) {
		if len(b.Mw) > 0 {
			g.Use(b.Mw...)
		}
		if b.Prefix == "" {
			fn(g)
			return
		}
		g.Route(b.Prefix, fn)
	})
}
