package module

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"dumpsift/internal/modkit"
	"dumpsift/internal/platform/config"
	perr "dumpsift/internal/platform/errors"
	phttp "dumpsift/internal/platform/net/http"
	kit "dumpsift/internal/platform/testkit"
	"dumpsift/internal/services/extract/domain"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func TestNew_EndToEndDirectoryRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "comments")
	kit.WriteNDJSON(t, in, "RC_2023-11.ndjson.zst",
		`{"author":"Foo","subreddit":"Palestine","created_utc":1700000000,"body":"hi","score":1,"link_id":"t3_q","id":"a"}`,
		`{"author":"AutoModerator","subreddit":"Palestine","created_utc":1700000000,"body":"rules","score":1,"link_id":"t3_q","id":"b"}`,
		`{"author":"Bar","subreddit":"news","created_utc":1700000000,"body":"x","score":1,"link_id":"t3_q","id":"c"}`,
	)
	kit.WriteNDJSON(t, in, "RC_2023-12.ndjson.zst", `{"author":"Baz","subreddit":"worldnews","created_utc":1,"body":"old"}`)

	ignored := filepath.Join(dir, "ignored.txt")
	if err := os.WriteFile(ignored, []byte("automoderator\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opt := validOptions()
	opt.Input = in
	opt.Output = filepath.Join(dir, "out")
	opt.CSVTZ = time.UTC
	opt.Filters[0] = FilterOptions{Field: "subreddit", Values: []string{"Palestine"}, Exact: true}
	opt.Filters[1] = FilterOptions{Field: "author", ValuesFile: ignored, Exact: true, Inverse: true}

	var logs bytes.Buffer
	m, err := New(modkit.Deps{Log: zerolog.New(&logs), Cfg: config.New()}, &opt, domain.NewTracker("r1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sum, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.OK != 2 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Files[0].Matched != 1 || sum.Files[0].Total != 3 || sum.Files[1].Matched != 0 {
		t.Fatalf("files = %+v", sum.Files)
	}

	b, err := os.ReadFile(filepath.Join(dir, "out", "RC_2023-11.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "author,subreddit,score,created,link,body\r\n" +
		"u/Foo,Palestine,1,2023-11-14 22:13,https://www.reddit.com/r/Palestine/comments/q/_/a/,hi\r\n"
	if string(b) != want {
		t.Fatalf("csv = %q", b)
	}

	out := logs.String()
	kit.MustContain(t, out, `"message":"loaded filter values"`)
	kit.MustContain(t, out, `"values":"palestine"`)
	kit.MustContain(t, out, `"component":"extract"`)
	kit.MustContain(t, out, `"message":"date range"`)
}

func TestNew_ConfigErrors(t *testing.T) {
	opt := validOptions()
	opt.Format = "xml"
	if _, err := New(modkit.Deps{}, &opt, nil); !perr.IsCode(err, perr.ErrorCodeConfig) {
		t.Fatalf("unsupported format: %v", err)
	}

	opt = validOptions()
	opt.Filters[0] = FilterOptions{Field: "  ", Values: []string{"x"}}
	if _, err := New(modkit.Deps{}, &opt, nil); !perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
		t.Fatalf("blank field: %v", err)
	}
}

func TestNew_SingleFieldSwitchesToTxt(t *testing.T) {
	opt := validOptions()
	opt.SingleField = "author"
	var logs bytes.Buffer
	m, err := New(modkit.Deps{Log: zerolog.New(&logs)}, &opt, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Options().Format != "txt" {
		t.Fatalf("format = %q", m.Options().Format)
	}
	kit.MustContain(t, logs.String(), "single field output mode")
}

func TestRun_MissingInput(t *testing.T) {
	opt := validOptions()
	opt.Input = filepath.Join(t.TempDir(), "nothing")
	m, err := New(modkit.Deps{}, &opt, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Run(context.Background()); !perr.IsCode(err, perr.ErrorCodeNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestMountRoutes_ProgressAndHealth(t *testing.T) {
	opt := validOptions()
	tr := domain.NewTracker("run-9")
	m, err := New(modkit.Deps{}, &opt, tr, modkit.WithPrefix("/status"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "extract" {
		t.Fatalf("Name = %q", m.Name())
	}
	if _, ok := m.Ports().(Ports); !ok {
		t.Fatalf("Ports type = %T", m.Ports())
	}

	tr.Begin(3)
	tr.Update(domain.FileStats{Input: "a.zst", Total: 10, Bytes: 50, Size: 200})

	r := phttp.AdaptChi(chi.NewRouter())
	m.MountRoutes(r)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/progress", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("progress code = %d", rec.Code)
	}
	var env struct {
		Data domain.Snapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Data.RunID != "run-9" || env.Data.FilesAll != 3 || env.Data.Current == nil || env.Data.Percent != 25 {
		t.Fatalf("snapshot = %+v", env.Data)
	}

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz code = %d", rec.Code)
	}
	kit.MustContain(t, rec.Body.String(), `"service":"dumpsift-extract"`)
}

func TestNew_ReadsOptionsFromDepsConfig(t *testing.T) {
	t.Setenv("EXTRACT_INPUT", "in")
	t.Setenv("EXTRACT_OUTPUT", "out")
	t.Setenv("EXTRACT_FORMAT", "TXT")
	t.Setenv("EXTRACT_DATE_TZ", "Mars/Olympus")
	t.Setenv("EXTRACT_FILTER1_FIELD", "author")
	t.Setenv("EXTRACT_FILTER1_EXACT", "nope")

	var logs bytes.Buffer
	log := zerolog.New(&logs)
	m, err := New(modkit.Deps{Log: log, Cfg: config.New().WithLogger(log)}, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := m.Options()
	if got.Input != "in" || got.Format != "txt" || got.DateTZ != time.UTC || !got.Filters[0].Exact {
		t.Fatalf("options = %+v", got)
	}
	out := logs.String()
	kit.MustContain(t, out, `"key":"EXTRACT_DATE_TZ"`)
	kit.MustContain(t, out, "invalid time zone; using default")
	kit.MustContain(t, out, `"key":"EXTRACT_FILTER1_EXACT"`)
	kit.MustContain(t, out, "invalid bool; using default")
}
