// Package project renders surviving records into the selected output encoding
package project

import (
	"encoding/json"
	"time"

	"dumpsift/internal/core/normalize"
	"dumpsift/internal/core/record"
	perr "dumpsift/internal/platform/errors"
	"dumpsift/internal/platform/logger"
	pstr "dumpsift/internal/platform/strings"
)

const (
	redditBase    = "https://www.reddit.com"
	createdLayout = "2006-01-02 15:04"
)

// Sink receives rendered output for one file
type Sink interface {
	WriteLine(line []byte) error
	WriteRow(cols []string) error
	Close() error
}

// Options configures a Projector
type Options struct {
	Format Format
	Kind   Kind
	// Single selects one field per line; it only applies to FormatTxt
	Single string
	// Columns overrides the default CSV columns for Kind
	Columns []string
	// Location renders the created column; nil means time.Local
	Location *time.Location
	Log      logger.Logger
}

// Projector renders records for one output file
type Projector struct {
	format  Format
	single  string
	columns []string
	loc     *time.Location
	log     logger.Logger
}

// New builds a Projector
func New(opt Options) *Projector {
	cols := pstr.IfEmpty(pstr.Compact(opt.Columns), DefaultColumns(opt.Kind))
	loc := opt.Location
	if loc == nil {
		loc = time.Local
	}
	return &Projector{format: opt.Format, single: opt.Single, columns: cols, loc: loc, log: opt.Log}
}

// Header is the CSV header row, nil for the line formats
func (p *Projector) Header() []string {
	if p.format != FormatCSV {
		return nil
	}
	return append([]string(nil), p.columns...)
}

// Write renders rec to sink
// line is the original trimmed input and is only used by FormatZst
// Errors from record access are per line errors, sink errors are not
func (p *Projector) Write(sink Sink, line []byte, rec record.Record) error {
	switch p.format {
	case FormatZst:
		return sink.WriteLine(line)
	case FormatTxt:
		if p.single != "" {
			return sink.WriteLine([]byte(p.singleValue(rec)))
		}
		b, err := rec.Canonical()
		if err != nil {
			return err
		}
		return sink.WriteLine(b)
	case FormatCSV:
		row, err := p.Row(rec)
		if err != nil {
			return err
		}
		return sink.WriteRow(row)
	default:
		return perr.Configf("unsupported output format %q", p.format)
	}
}

// Row projects rec onto the configured columns
func (p *Projector) Row(rec record.Record) ([]string, error) {
	row := make([]string, len(p.columns))
	for i, col := range p.columns {
		v, err := p.column(rec, col)
		if err != nil {
			return nil, err
		}
		row[i] = normalize.Printable(v)
	}
	return row, nil
}

func (p *Projector) column(rec record.Record, col string) (string, error) {
	switch col {
	case "created":
		ts, err := rec.Created()
		if err != nil {
			return "", err
		}
		return time.Unix(ts, 0).In(p.loc).Format(createdLayout), nil
	case "link":
		return link(rec)
	case "author":
		v, err := rec.Require("author")
		if err != nil {
			return "", err
		}
		return "u/" + stringify(v), nil
	case "text":
		return rec.String("selftext"), nil
	default:
		v, ok := rec.Lookup(col)
		if !ok {
			return "", nil
		}
		return stringify(v), nil
	}
}

// link prefers permalink, otherwise rebuilds the comment url from subreddit, link_id and id
func link(rec record.Record) (string, error) {
	if v, ok := rec.Lookup("permalink"); ok {
		return redditBase + stringify(v), nil
	}
	parts := [3]string{}
	for i, f := range [3]string{"subreddit", "link_id", "id"} {
		v, err := rec.Require(f)
		if err != nil {
			return "", err
		}
		parts[i] = stringify(v)
	}
	linkID := parts[1]
	if len(linkID) > 3 {
		linkID = linkID[3:] // drop the t3_ kind prefix
	} else {
		linkID = ""
	}
	return redditBase + "/r/" + parts[0] + "/comments/" + linkID + "/_/" + parts[2] + "/", nil
}

func (p *Projector) singleValue(rec record.Record) string {
	v, ok := rec.Lookup(p.single)
	if !ok {
		p.log.Info().Str("field", p.single).Str("id", rec.String("id")).Msg("field not in object")
		return ""
	}
	return stringify(v)
}

// stringify renders scalars as text and nested values as compact JSON
func stringify(v any) string {
	if s, ok := record.Text(v); ok {
		return s
	}
	b, _ := json.Marshal(v) // decoded JSON always re-encodes
	return string(b)
}
