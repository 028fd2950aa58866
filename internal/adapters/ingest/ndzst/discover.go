package ndzst

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	perr "dumpsift/internal/platform/errors"
)

// Job pairs one input dump with the output base path (no extension) it writes to
type Job struct {
	Input  string
	Output string
}

// Discover expands input into jobs
// A directory input yields one job per regular *.zst entry, in name order, written
// under output with the name's last two extensions removed; output is created if missing
// A file input yields a single job with output unchanged
func Discover(input, output string) ([]Job, error) {
	if input == "" {
		return nil, perr.InvalidArgf("input path is required")
	}
	if output == "" {
		return nil, perr.InvalidArgf("output path is required")
	}
	st, err := os.Stat(input)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perr.Wrapf(err, perr.ErrorCodeNotFound, "input %s", input)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "stat %s", input)
	}
	if !st.IsDir() {
		return []Job{{Input: input, Output: output}}, nil
	}

	if err := os.MkdirAll(output, 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "create output dir %s", output)
	}
	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "list %s", input)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var jobs []Job
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zst") {
			continue
		}
		jobs = append(jobs, Job{
			Input:  filepath.Join(input, e.Name()),
			Output: filepath.Join(output, StripExt(e.Name(), 2)),
		})
	}
	return jobs, nil
}

// StripExt removes up to n trailing extensions from a file name
// RC_2023-01.ndjson.zst -> RC_2023-01
func StripExt(name string, n int) string {
	for ; n > 0; n-- {
		ext := filepath.Ext(name)
		if ext == "" || ext == name {
			break
		}
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
