package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dumpsift/internal/modkit"
	"dumpsift/internal/platform/config"
	perr "dumpsift/internal/platform/errors"
	"dumpsift/internal/platform/logger"
	phttp "dumpsift/internal/platform/net/http"
	"dumpsift/internal/platform/net/middleware"
	"dumpsift/internal/services/extract/domain"
	extract "dumpsift/internal/services/extract/module"
	"dumpsift/internal/version"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// app carries the state shared between flag parsing and the run
type app struct {
	deps   modkit.Deps
	runID  string
	opts   extract.Options
	dateTZ string
	csvTZ  string
	code   int
}

// newRootCmd binds the flags over the env values read through a.deps.Cfg
func newRootCmd(a *app) *cobra.Command {
	a.opts = extract.FromConfig(a.deps.Cfg)
	a.dateTZ = a.opts.DateTZ.String()
	a.csvTZ = a.opts.CSVTZ.String()

	cmd := &cobra.Command{
		Use:   "dumpsift-extract",
		Short: "Filter zstd ndjson dumps into csv, txt or zst",
		Long: `dumpsift-extract streams one .zst dump or every .zst file in a directory,
keeps the records that fall inside the date range and pass every field filter,
and writes them in the chosen output format.

Every flag defaults to its EXTRACT_* environment value.`,
		Version:       version.Info().String(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context())
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return perr.Wrap(err, perr.ErrorCodeConfig, "bad flag")
	})
	bindFlags(cmd.Flags(), a)
	return cmd
}

func bindFlags(fs *pflag.FlagSet, a *app) {
	o := &a.opts
	fs.StringVarP(&o.Input, "input", "i", o.Input, "input .zst file or directory of .zst files")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "output base path (file) or directory")
	fs.StringVarP(&o.Format, "format", "f", o.Format, "output format: zst, txt or csv")
	fs.StringVar(&o.SingleField, "single-field", o.SingleField, "write only this field, one value per line (forces txt)")
	fs.BoolVar(&o.WriteBadLines, "write-bad-lines", o.WriteBadLines, "log every malformed line")
	fs.StringSliceVar(&o.CSVFields, "csv-fields", o.CSVFields, "csv columns, defaults depend on the dump kind")
	fs.StringVar(&o.FromDate, "from", o.FromDate, "first day to keep, inclusive (YYYY-MM-DD or RFC3339)")
	fs.StringVar(&o.ToDate, "to", o.ToDate, "last day to keep, inclusive (YYYY-MM-DD or RFC3339)")
	fs.StringVar(&a.dateTZ, "date-tz", a.dateTZ, "time zone the date range is read in")
	fs.StringVar(&a.csvTZ, "csv-tz", a.csvTZ, "time zone of the csv created column")
	for i := range o.Filters {
		f := &o.Filters[i]
		n := i + 1
		fs.StringVar(&f.Field, fmt.Sprintf("field%d", n), f.Field, fmt.Sprintf("filter %d: record field to match", n))
		fs.StringSliceVar(&f.Values, fmt.Sprintf("values%d", n), f.Values, fmt.Sprintf("filter %d: values to match", n))
		fs.StringVar(&f.ValuesFile, fmt.Sprintf("values-file%d", n), f.ValuesFile, fmt.Sprintf("filter %d: file with one value per line", n))
		fs.BoolVar(&f.Exact, fmt.Sprintf("exact%d", n), f.Exact, fmt.Sprintf("filter %d: whole value match instead of substring", n))
		fs.BoolVar(&f.Inverse, fmt.Sprintf("inverse%d", n), f.Inverse, fmt.Sprintf("filter %d: drop matching records instead of keeping them", n))
	}
	fs.IntVar(&o.ProgressEvery, "progress-every", o.ProgressEvery, "lines between progress logs")
	fs.IntVar(&o.ZstLevel, "zst-level", o.ZstLevel, "compression level for zst output")
	fs.StringVar(&o.StatusAddr, "status-addr", o.StatusAddr, "serve /healthz and /progress on this address")
	fs.StringSliceVar(&o.StatusOrigins, "status-cors-origins", o.StatusOrigins, "origins allowed to read the status endpoints")
	fs.BoolVar(&o.Profiler, "profiler", o.Profiler, "mount pprof under /debug on the status server")
}

// rootDeps builds the run logger, tagged with runID, and a config view reporting through it
func rootDeps(stderr io.Writer, runID string) (modkit.Deps, io.Closer, error) {
	lo := logger.FromEnv()
	lo.Writer = stderr
	if lo.Service == "" {
		lo.Service = version.Info().Service
	}
	lo.StaticFields = map[string]string{"run_id": runID}
	log, closer, err := logger.New(lo)
	if err != nil {
		return modkit.Deps{}, closer, perr.Wrap(err, perr.ErrorCodeConfig, "open log file")
	}
	return modkit.Deps{Log: log, Cfg: config.New().WithLogger(logger.Named(log, "config"))}, closer, nil
}

// run builds the module and processes every discovered file
func (a *app) run(ctx context.Context) error {
	if err := a.locations(); err != nil {
		return err
	}
	log := a.deps.Log
	log.Info().Str("version", version.Info().String()).Msg("starting")

	tr := domain.NewTracker(a.runID)
	mod, err := extract.New(a.deps, &a.opts, tr)
	if err != nil {
		log.Error().Err(err).Str("field", perr.FieldOf(err)).Msg("invalid configuration")
		return err
	}

	if addr := mod.Options().StatusAddr; addr != "" {
		srv := statusServer(addr, log, mod)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Error().Err(err).Msg("status server failed")
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	sum, err := mod.Run(ctx)
	if err != nil {
		log.Error().Stack().Err(err).Msg("run aborted")
		return err
	}
	if sum.Failed > 0 || ctx.Err() != nil {
		a.code = exitFailed
	}
	return nil
}

// locations resolves the time zone flags
func (a *app) locations() error {
	var err error
	if a.opts.DateTZ, err = loadLocation("date-tz", a.dateTZ); err != nil {
		return err
	}
	a.opts.CSVTZ, err = loadLocation("csv-tz", a.csvTZ)
	return err
}

func loadLocation(flag, name string) (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(name))
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeConfig, "unknown time zone %q", name), flag)
	}
	return loc, nil
}

func statusServer(addr string, log logger.Logger, mod *extract.Module) *phttp.Server {
	srv := phttp.NewServer(addr, log, func(m *chi.Mux) {
		m.Use(middleware.Defaults(log, mod.Options().StatusOrigins)...)
		m.Use(middleware.Heartbeat("/ping"))
	})
	r := srv.Router()
	mod.MountRoutes(r)
	phttp.MountProfiler(r, "/debug", mod.Options().Profiler)
	r.Head("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	return srv
}

// exitCode maps a command error to the process status
func exitCode(err error) int {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeConfig, perr.ErrorCodeValidation, perr.ErrorCodeInvalidArgument:
		return exitConfig
	}
	return exitFailed
}
