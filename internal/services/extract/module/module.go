// Package module wires the extract service from options and mounts its status routes
package module

import (
	"context"
	"net/http"
	"strings"

	"dumpsift/internal/adapters/ingest/ndzst"
	"dumpsift/internal/adapters/sink"
	"dumpsift/internal/core/filter"
	"dumpsift/internal/core/project"
	"dumpsift/internal/modkit"
	"dumpsift/internal/platform/logger"
	phttp "dumpsift/internal/platform/net/http"
	"dumpsift/internal/services/extract/domain"
	"dumpsift/internal/services/extract/service"
	"dumpsift/internal/version"
)

// maxLoggedValues caps how many filter values are echoed at startup
const maxLoggedValues = 20

// Ports defines the extract module ports
type Ports struct {
	Runner   domain.RunnerPort
	Progress domain.ProgressPort
}

// Module implements the extract module
type Module struct {
	built modkit.Built
	opts  Options
	svc   *service.Service
	ports Ports
}

var _ modkit.Module = (*Module)(nil)

// New validates the options and wires the service
// A nil in reads them from deps.Cfg; callers that layer flags over the env pass their own
// Any error is a configuration error: nothing has been opened yet
func New(deps modkit.Deps, in *Options, tr *domain.Tracker, mods ...modkit.Option) (*Module, error) {
	built := modkit.Build("extract", mods...)
	var opt Options
	if in != nil {
		opt = *in
	} else {
		opt = FromConfig(deps.Cfg)
	}
	log := deps.Named(built.Name).Log

	if opt.Normalize() {
		log.Info().Msg("single field output mode, changing output format to txt")
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	format, err := project.ParseFormat(opt.Format)
	if err != nil {
		return nil, err
	}
	chain, err := buildChain(log, opt)
	if err != nil {
		return nil, err
	}
	log.Info().Str("format", string(format)).Msg("output format")

	readOpts := ndzst.Options{
		ChunkSize:    opt.ChunkSize,
		DecodeWindow: opt.DecodeWindow,
		FrameWindow:  opt.FrameWindow,
		Log:          logger.Named(log, "ndzst"),
	}
	open := func(path string) (domain.LineSource, error) {
		src, err := ndzst.Open(path, readOpts)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	openSink := func(path string, header []string) (project.Sink, error) {
		return sink.Open(path, sink.Options{Format: format, Header: header, Level: opt.ZstLevel})
	}

	svc := service.New(service.Config{
		Format:        format,
		Single:        opt.SingleField,
		Columns:       opt.CSVFields,
		CSVLocation:   opt.CSVTZ,
		Chain:         chain,
		ProgressEvery: opt.ProgressEvery,
		WriteBadLines: opt.WriteBadLines,
	}, open, openSink, log, tr)

	m := &Module{built: built, opts: opt, svc: svc}
	m.ports = Ports{Runner: svc, Progress: svc}
	return m, nil
}

// buildChain turns the options into a date window plus the configured rules, logging each
func buildChain(log logger.Logger, opt Options) (*filter.Chain, error) {
	from, err := filter.ParseDate(opt.FromDate, opt.DateTZ)
	if err != nil {
		return nil, err
	}
	to, err := filter.ParseDate(opt.ToDate, opt.DateTZ)
	if err != nil {
		return nil, err
	}
	chain := &filter.Chain{Window: filter.Window{From: from, To: to}}

	for i, fo := range opt.Filters {
		if fo.Field == "" {
			continue
		}
		values := fo.Values
		if fo.ValuesFile != "" {
			values, err = filter.LoadValues(fo.ValuesFile)
			if err != nil {
				return nil, err
			}
			log.Info().Int("count", len(values)).Str("file", fo.ValuesFile).Str("field", fo.Field).Msg("loaded filter values")
		}
		mode, pol := filter.Exact, filter.Include
		if !fo.Exact {
			mode = filter.Substring
		}
		if fo.Inverse {
			pol = filter.Exclude
		}
		rule, err := filter.NewRule(fo.Field, values, mode, pol)
		if err != nil {
			return nil, err
		}
		evt := log.Info().
			Int("filter", i+1).
			Str("field", rule.Field()).
			Stringer("mode", rule.Mode()).
			Stringer("polarity", rule.Polarity())
		if len(rule.Values()) <= maxLoggedValues {
			evt = evt.Str("values", strings.Join(rule.Values(), ","))
		}
		evt.Msg("filter")
		chain.Rules = append(chain.Rules, rule)
	}

	evt := log.Info()
	if !from.IsZero() {
		evt = evt.Str("from", from.Format("2006-01-02"))
	}
	if !to.IsZero() {
		evt = evt.Str("to", to.Format("2006-01-02"))
	}
	evt.Str("tz", opt.DateTZ.String()).Msg("date range")
	return chain, nil
}

// Jobs expands the configured input into per file jobs
func (m *Module) Jobs() ([]domain.Job, error) {
	return ndzst.Discover(m.opts.Input, m.opts.Output)
}

// Run discovers the inputs and processes them in order
func (m *Module) Run(ctx context.Context) (domain.RunSummary, error) {
	jobs, err := m.Jobs()
	if err != nil {
		return domain.RunSummary{}, err
	}
	return m.ports.Runner.Run(ctx, jobs)
}

// Options returns the normalized options the module was built with
func (m *Module) Options() Options { return m.opts }

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }

// MountRoutes mounts the status routes
func (m *Module) MountRoutes(r phttp.Router) {
	m.built.Mount(r, func(g phttp.Router) {
		phttp.GetJSON(g, "/healthz", func(*http.Request) (any, error) {
			return map[string]any{"status": "ok", "build": version.Info()}, nil
		})
		phttp.GetJSON(g, "/progress", func(*http.Request) (any, error) {
			return m.ports.Progress.Snapshot(), nil
		})
	})
}
