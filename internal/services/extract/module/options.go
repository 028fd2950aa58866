package module

import (
	"fmt"
	"strings"
	"time"

	"dumpsift/internal/adapters/ingest/ndzst"
	"dumpsift/internal/adapters/sink"
	"dumpsift/internal/platform/config"
	perr "dumpsift/internal/platform/errors"
	"dumpsift/internal/platform/validate"
)

// FilterOptions configures one field rule; an empty Field disables it
type FilterOptions struct {
	Field      string   `cfg:"FIELD"`
	Values     []string `cfg:"VALUES"`
	ValuesFile string   `cfg:"VALUES_FILE" validate:"omitempty,file"`
	Exact      bool     `cfg:"EXACT"`
	Inverse    bool     `cfg:"INVERSE"`
}

// Options holds configuration for an extraction run
type Options struct {
	Input         string   `cfg:"INPUT" validate:"required"`
	Output        string   `cfg:"OUTPUT" validate:"required"`
	Format        string   `cfg:"FORMAT" validate:"required,oneof=zst txt csv"`
	SingleField   string   `cfg:"SINGLE_FIELD"`
	WriteBadLines bool     `cfg:"WRITE_BAD_LINES"`
	CSVFields     []string `cfg:"CSV_FIELDS" validate:"omitempty,dive,column"`

	FromDate string         `cfg:"FROM_DATE" validate:"omitempty,datetime=2006-01-02|datetime=2006-01-02T15:04:05Z07:00"`
	ToDate   string         `cfg:"TO_DATE" validate:"omitempty,datetime=2006-01-02|datetime=2006-01-02T15:04:05Z07:00"`
	DateTZ   *time.Location `cfg:"DATE_TZ" validate:"-"`
	CSVTZ    *time.Location `cfg:"CSV_TZ" validate:"-"`

	Filters [2]FilterOptions `cfg:"FILTER" validate:"dive"`

	ChunkSize     int    `cfg:"CHUNK_SIZE" validate:"gt=0"`
	DecodeWindow  int    `cfg:"DECODE_WINDOW" validate:"gtefield=ChunkSize"`
	FrameWindow   uint64 `cfg:"FRAME_WINDOW" validate:"min=1024,max=2199023255552"`
	ProgressEvery int    `cfg:"PROGRESS_EVERY" validate:"gt=0"`
	ZstLevel      int    `cfg:"ZST_LEVEL" validate:"min=1,max=22"`

	StatusAddr    string   `cfg:"STATUS_ADDR" validate:"omitempty,hostname_port"`
	StatusOrigins []string `cfg:"STATUS_CORS_ORIGINS"`
	Profiler      bool     `cfg:"PROFILER"`
}

// FromConfig reads the extract options from config with the EXTRACT_ prefix
func FromConfig(cfg config.Conf) Options {
	ex := cfg.Prefix("EXTRACT_")
	opt := Options{
		Input:         ex.MayString("INPUT", ""),
		Output:        ex.MayString("OUTPUT", ""),
		Format:        ex.MayString("FORMAT", "csv"),
		SingleField:   ex.MayString("SINGLE_FIELD", ""),
		WriteBadLines: ex.MayBool("WRITE_BAD_LINES", true),
		CSVFields:     ex.MayCSV("CSV_FIELDS", nil),
		FromDate:      ex.MayString("FROM_DATE", "2005-01-01"),
		ToDate:        ex.MayString("TO_DATE", "2030-12-31"),
		DateTZ:        ex.MayLocation("DATE_TZ", time.UTC),
		CSVTZ:         ex.MayLocation("CSV_TZ", time.Local),
		ChunkSize:     ex.MayInt("CHUNK_SIZE", ndzst.DefaultChunkSize),
		DecodeWindow:  ex.MayInt("DECODE_WINDOW", ndzst.DefaultDecodeWindow),
		FrameWindow:   uint64(ex.MayInt64("FRAME_WINDOW", ndzst.DefaultFrameWindow)),
		ProgressEvery: ex.MayInt("PROGRESS_EVERY", 100_000),
		ZstLevel:      ex.MayInt("ZST_LEVEL", sink.DefaultLevel),
		StatusAddr:    ex.MayString("STATUS_ADDR", ""),
		StatusOrigins: ex.MayCSV("STATUS_CORS_ORIGINS", nil),
		Profiler:      ex.MayBool("PROFILER", false),
	}
	for i := range opt.Filters {
		f := ex.Prefix(fmt.Sprintf("FILTER%d_", i+1))
		opt.Filters[i] = FilterOptions{
			Field:      f.MayString("FIELD", ""),
			Values:     f.MayCSV("VALUES", nil),
			ValuesFile: f.MayString("VALUES_FILE", ""),
			Exact:      f.MayBool("EXACT", true),
			Inverse:    f.MayBool("INVERSE", false),
		}
	}
	return opt
}

// Normalize lower-cases the format and applies the cross field rules: single field mode always writes txt
// It reports whether single field mode changed the format
func (o *Options) Normalize() bool {
	o.Format = strings.ToLower(strings.TrimSpace(o.Format))
	if o.SingleField != "" && o.Format != "txt" {
		o.Format = "txt"
		return true
	}
	return false
}

// Validate checks o; any failure is a run halting configuration error
func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return perr.WithField(perr.Wrap(err, perr.ErrorCodeConfig, "invalid extract options"), perr.FieldOf(err))
	}
	return nil
}
