// Package service drives extraction: one file at a time, decode, filter, project, write
package service

import (
	"context"
	"errors"
	"io"
	"strconv"
	"time"

	"dumpsift/internal/core/filter"
	"dumpsift/internal/core/project"
	"dumpsift/internal/core/record"
	perr "dumpsift/internal/platform/errors"
	"dumpsift/internal/platform/logger"
	"dumpsift/internal/services/extract/domain"

	"github.com/rs/zerolog"
)

const defaultProgressEvery = 100_000

// Config holds the per run settings shared by every file
type Config struct {
	Format project.Format
	// Single is the field written in single field mode (txt only)
	Single string
	// Columns overrides the default CSV columns
	Columns []string
	// CSVLocation renders the created column; nil means time.Local
	CSVLocation *time.Location

	Chain *filter.Chain

	ProgressEvery int
	WriteBadLines bool
}

// Service implements the extract runner
type Service struct {
	Cfg      Config
	Open     domain.SourceOpener
	Sink     domain.SinkOpener
	Log      logger.Logger
	Progress *domain.Tracker
}

// New constructs the service; open and sink are required
func New(cfg Config, open domain.SourceOpener, sink domain.SinkOpener, log logger.Logger, tr *domain.Tracker) *Service {
	if open == nil || sink == nil {
		panic("extract.Service requires source and sink openers")
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = defaultProgressEvery
	}
	if cfg.Chain == nil {
		cfg.Chain = &filter.Chain{}
	}
	if tr == nil {
		tr = &domain.Tracker{}
	}
	return &Service{Cfg: cfg, Open: open, Sink: sink, Log: log, Progress: tr}
}

// Snapshot implements domain.ProgressPort
func (s *Service) Snapshot() domain.Snapshot { return s.Progress.Snapshot() }

// Run processes jobs in order
// A failed file is logged and skipped; only cancellation stops the run early
func (s *Service) Run(ctx context.Context, jobs []domain.Job) (domain.RunSummary, error) {
	var sum domain.RunSummary
	s.Progress.Begin(len(jobs))
	s.Log.Info().Int("files", len(jobs)).Msg("processing files")

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			s.Log.Warn().Err(err).Int("remaining", len(jobs)-len(sum.Files)).Msg("run cancelled")
			return sum, err
		}
		st, err := s.ProcessFile(ctx, job)
		sum.Files = append(sum.Files, st)
		s.Progress.Finish(st)
		if err == nil {
			sum.OK++
			continue
		}
		sum.Failed++
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.Log.Warn().Str("input", job.Input).Int64("total", st.Total).Msg("file interrupted")
			return sum, err
		}
		s.Log.Warn().Stack().Err(err).
			Str("input", job.Input).
			Str("code", perr.CodeOf(err).String()).
			Msg("error processing file")
	}

	s.Log.Info().Int("ok", sum.OK).Int("failed", sum.Failed).Msg("run complete")
	return sum, nil
}

// ProcessFile streams one dump into its output
// The sink is closed on every path once opened; stats are returned even on failure
func (s *Service) ProcessFile(ctx context.Context, job domain.Job) (st domain.FileStats, err error) {
	kind := project.KindFromPath(job.Input)
	proj := project.New(project.Options{
		Format:   s.Cfg.Format,
		Kind:     kind,
		Single:   s.Cfg.Single,
		Columns:  s.Cfg.Columns,
		Location: s.Cfg.CSVLocation,
		Log:      s.Log,
	})
	st = domain.FileStats{
		Input:   job.Input,
		Output:  job.Output + s.Cfg.Format.Extension(),
		State:   domain.StateOpen,
		Started: time.Now(),
	}
	log := s.Log.With().Str("input", st.Input).Logger()
	log.Info().Str("output", st.Output).Stringer("kind", kind).Msg("file start")

	defer func() {
		st.Finished = time.Now()
		if err != nil {
			st.State = domain.StateFailed
			st.Err = err.Error()
		}
	}()

	src, err := s.Open(job.Input)
	if err != nil {
		return st, err
	}
	defer func() { _ = src.Close() }()
	st.Size = src.Size()

	out, err := s.Sink(st.Output, proj.Header())
	if err != nil {
		return st, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err == nil {
			st.State = domain.StateFinalized
		}
	}()

	st.State = domain.StateStreaming
	s.Progress.Update(st)
	lines := src.Lines()
	every := int64(s.Cfg.ProgressEvery)

	for {
		line, rerr := lines.Next()
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return st, rerr
		}
		st.Total++
		st.Bytes = line.Offset
		if st.Total%every == 0 {
			s.progress(log, st)
			if cerr := ctx.Err(); cerr != nil {
				return st, cerr
			}
		}

		kept, lerr := s.handle(proj, out, line.Text, &st)
		switch {
		case lerr == nil:
			if kept {
				st.Matched++
			}
		case perr.IsLineError(lerr):
			st.Bad++
			s.badLine(log, lerr)
		default:
			return st, lerr
		}
	}

	st.Discarded = lines.Discarded()
	if st.Discarded > 0 {
		log.Info().Int("bytes", st.Discarded).Msg("dropped unterminated trailing line")
	}
	log.Info().
		Int64("total", st.Total).
		Int64("matched", st.Matched).
		Int64("bad", st.Bad).
		Msg("Complete")
	return st, nil
}

// handle parses, filters and renders one line; kept reports a written record
func (s *Service) handle(proj *project.Projector, out project.Sink, line []byte, st *domain.FileStats) (kept bool, err error) {
	rec, err := record.Parse(line)
	if err != nil {
		return false, err
	}
	if created, cerr := rec.Created(); cerr == nil {
		st.LastCreated = created
	}
	keep, err := s.Cfg.Chain.Keep(rec)
	if err != nil || !keep {
		return false, err
	}
	if err := proj.Write(out, line, rec); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) progress(log zerolog.Logger, st domain.FileStats) {
	evt := log.Info()
	if st.LastCreated != 0 {
		evt = evt.Time("created", time.Unix(st.LastCreated, 0).UTC())
	}
	evt.Int64("total", st.Total).
		Int64("matched", st.Matched).
		Int64("bad", st.Bad).
		Int64("bytes", st.Bytes).
		Str("percent", formatPercent(st.Percent())).
		Msg("progress")
	s.Progress.Update(st)
}

func (s *Service) badLine(log zerolog.Logger, err error) {
	if !s.Cfg.WriteBadLines {
		return
	}
	switch perr.CodeOf(err) {
	case perr.ErrorCodeJSON:
		log.Warn().Err(err).Msg("line decoding failed")
	default:
		log.Warn().Err(err).Str("field", perr.FieldOf(err)).Msg("key error")
	}
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', 0, 64) + "%"
}
