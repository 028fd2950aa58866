package project

import (
	"strings"

	perr "dumpsift/internal/platform/errors"
)

// Format is the output encoding for surviving records
type Format string

const (
	// FormatZst passes original lines through a zstd compressor
	FormatZst Format = "zst"
	// FormatTxt writes canonical ndjson, or one field per line in single field mode
	FormatTxt Format = "txt"
	// FormatCSV writes a header then one projected row per record
	FormatCSV Format = "csv"
)

// Formats lists every supported output encoding
var Formats = []Format{FormatZst, FormatTxt, FormatCSV}

// ParseFormat accepts zst, txt or csv in any case
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", perr.WithField(perr.Configf("unsupported output format %q", s), "format")
}

// Extension is appended to the output base path, dot included
func (f Format) Extension() string { return "." + string(f) }

// Kind is the record family a dump holds
type Kind uint8

const (
	// KindComment is the default family
	KindComment Kind = iota
	// KindSubmission covers link and self posts
	KindSubmission
)

// String implements fmt.Stringer
func (k Kind) String() string {
	if k == KindSubmission {
		return "submission"
	}
	return "comment"
}

// KindFromPath infers the family from the dump path naming convention
func KindFromPath(path string) Kind {
	if strings.Contains(path, "submission") {
		return KindSubmission
	}
	return KindComment
}

var (
	submissionColumns = []string{"author", "subreddit", "title", "num_comments", "score", "over_18", "created", "link", "text", "url"}
	commentColumns    = []string{"author", "subreddit", "score", "created", "link", "body"}
)

// DefaultColumns returns a copy of the built in CSV columns for kind
func DefaultColumns(k Kind) []string {
	if k == KindSubmission {
		return append([]string(nil), submissionColumns...)
	}
	return append([]string(nil), commentColumns...)
}
