// Package logger provides a zerolog wrapper with opinionated defaults
// There is no process-wide logger: New builds a root that callers pass down
package logger

import (
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"dumpsift/internal/platform/config/raw"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogFile    = "logs/extract.log"
	defaultFileMaxMB  = 16
	defaultFileBackup = 5
)

// Options configures the logger
type Options struct {
	Level        string
	Format       string
	Service      string
	Writer       io.Writer
	WithCaller   bool
	StaticFields map[string]string

	// File is an additional JSON sink rotated by size; empty disables it
	File        string
	FileMaxMB   int
	FileBackups int
}

// FromEnv builds Options using the logging-free raw config view (no cycles)
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	file := defaultLogFile
	if rc.Has("FILE") {
		file = rc.Get("FILE", "")
	}
	return Options{
		Level:        strings.ToLower(rc.Get("LEVEL", "info")),
		Format:       strings.ToLower(rc.Get("FORMAT", "console")),
		Service:      rc.Get("SERVICE", ""),
		WithCaller:   rc.GetBool("CALLER", false),
		File:         file,
		FileMaxMB:    rc.GetInt("FILE_MAX_MB", defaultFileMaxMB),
		FileBackups:  rc.GetInt("FILE_BACKUPS", defaultFileBackup),
	}
}

// Logger is the project-wide logging type - today it's just a zerolog.Logger, but it can be swapped later
type Logger = zerolog.Logger

var globalsOnce sync.Once

// New builds a root logger from opt
// The returned closer releases the rotating file sink and must be called once the run ends
func New(opt Options) (Logger, io.Closer, error) {
	globalsOnce.Do(func() {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
		zerolog.TimeFieldFormat = time.RFC3339Nano
	})

	var out io.Writer = os.Stdout
	if opt.Writer != nil {
		out = opt.Writer
	}
	if opt.Format == "console" {
		out = consoleWriter(out)
	}

	var closer io.Closer = nopCloser{}
	if opt.File != "" {
		rf := fileSink(opt)
		if err := os.MkdirAll(filepath.Dir(opt.File), 0o755); err != nil {
			return zerolog.Nop(), closer, err
		}
		out = zerolog.MultiLevelWriter(out, rf)
		closer = rf
	}

	ctx := zerolog.New(out).Level(parseLevel(opt.Level)).With().Timestamp()
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		ctx = ctx.Str("go_version", bi.GoVersion)
	}
	if opt.Service != "" {
		ctx = ctx.Str("service", opt.Service)
	}
	for k, v := range opt.StaticFields {
		ctx = ctx.Str(k, v)
	}

	log := ctx.Logger()
	if opt.WithCaller {
		log = log.With().Caller().Logger()
	}
	return log, closer, nil
}

// fileSink rotates opt.File once it would grow past FileMaxMB, keeping FileBackups old files (0 keeps all)
func fileSink(opt Options) *lumberjack.Logger {
	maxMB := opt.FileMaxMB
	if maxMB <= 0 {
		maxMB = defaultFileMaxMB
	}
	return &lumberjack.Logger{
		Filename:   opt.File,
		MaxSize:    maxMB,
		MaxBackups: max(opt.FileBackups, 0),
		LocalTime:  true,
	}
}

// Named returns a child logger with a component field
func Named(l Logger, component string) Logger {
	if component == "" {
		return l
	}
	return l.With().Str("component", component).Logger()
}

// consoleWriter renders human friendly lines, colored only on a real terminal
func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			cw.Out = colorable.NewColorable(f)
			cw.NoColor = false
		}
	}
	return cw
}

// parseLevel supports string-only levels
func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
