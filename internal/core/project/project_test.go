package project

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"dumpsift/internal/core/record"
	perr "dumpsift/internal/platform/errors"
	kit "dumpsift/internal/platform/testkit"

	"github.com/rs/zerolog"
)

type memSink struct {
	lines  []string
	rows   [][]string
	closed bool
}

func (m *memSink) WriteLine(b []byte) error  { m.lines = append(m.lines, string(b)); return nil }
func (m *memSink) WriteRow(c []string) error { m.rows = append(m.rows, c); return nil }
func (m *memSink) Close() error              { m.closed = true; return nil }

func parse(t *testing.T, line string) record.Record {
	t.Helper()
	r, err := record.Parse([]byte(line))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return r
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"zst": FormatZst, " TXT ": FormatTxt, "Csv": FormatCSV} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q,%v", in, got, err)
		}
	}
	_, err := ParseFormat("parquet")
	if !perr.IsCode(err, perr.ErrorCodeConfig) || perr.FieldOf(err) != "format" {
		t.Fatalf("want config error on format, got %v", err)
	}
	if FormatCSV.Extension() != ".csv" {
		t.Fatalf("Extension = %q", FormatCSV.Extension())
	}
}

func TestKindAndDefaults(t *testing.T) {
	if KindFromPath("/data/submissions/RS_2023-01.zst") != KindSubmission {
		t.Fatalf("submission path not detected")
	}
	if KindFromPath("/data/comments/RC_2023-01.zst") != KindComment {
		t.Fatalf("comment path misdetected")
	}
	cols := DefaultColumns(KindComment)
	cols[0] = "mutated"
	if DefaultColumns(KindComment)[0] != "author" {
		t.Fatalf("DefaultColumns must return a copy")
	}
	if len(DefaultColumns(KindSubmission)) != 10 {
		t.Fatalf("submission defaults = %v", DefaultColumns(KindSubmission))
	}
}

func TestCSV_ScenarioRow(t *testing.T) {
	p := New(Options{Format: FormatCSV, Kind: KindComment, Location: time.UTC})
	if got := strings.Join(p.Header(), ","); got != "author,subreddit,score,created,link,body" {
		t.Fatalf("header = %s", got)
	}

	sink := &memSink{}
	r := parse(t, `{"author":"Foo","subreddit":"Palestine","created_utc":1700000000,"body":"hi","score":3,"link_id":"t3_abc","id":"k1"}`)
	if err := p.Write(sink, nil, r); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := []string{"u/Foo", "Palestine", "3", "2023-11-14 22:13", "https://www.reddit.com/r/Palestine/comments/abc/_/k1/", "hi"}
	if strings.Join(sink.rows[0], "|") != strings.Join(want, "|") {
		t.Fatalf("row = %q\nwant %q", sink.rows[0], want)
	}
}

func TestCSV_CustomColumns(t *testing.T) {
	p := New(Options{Format: FormatCSV, Columns: []string{"link", "text", "over_18", "missing", "edited", "media"}, Location: time.UTC})
	row, err := p.Row(parse(t, `{"permalink":"/r/x/comments/1/t/","selftext":"badé","over_18":false,"edited":null,"media":{"a":[1]}}`))
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	want := []string{"https://www.reddit.com/r/x/comments/1/t/", "badé", "false", "", "", `{"a":[1]}`}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("col %d = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestCSV_MissingAuthorIsLineError(t *testing.T) {
	p := New(Options{Format: FormatCSV, Location: time.UTC})
	err := p.Write(&memSink{}, nil, parse(t, `{"created_utc":1,"subreddit":"a","link_id":"t3_x","id":"y"}`))
	if !perr.IsLineError(err) || perr.FieldOf(err) != "author" {
		t.Fatalf("want missing author line error, got %v", err)
	}
}

func TestCSV_InvalidUTF8Replaced(t *testing.T) {
	p := New(Options{Format: FormatCSV, Columns: []string{"body"}})
	row, err := p.Row(record.Record{"body": "ok\xffok"})
	if err != nil {
		t.Fatal(err)
	}
	if row[0] != "ok�ok" {
		t.Fatalf("body = %q", row[0])
	}
}

func TestZst_PassesLineThrough(t *testing.T) {
	p := New(Options{Format: FormatZst})
	sink := &memSink{}
	raw := []byte(`{"b":1,  "a":2}`)
	if err := p.Write(sink, raw, parse(t, string(raw))); err != nil {
		t.Fatal(err)
	}
	if sink.lines[0] != string(raw) {
		t.Fatalf("line = %q", sink.lines[0])
	}
	if p.Header() != nil {
		t.Fatalf("zst has no header")
	}
}

func TestTxt_Canonical(t *testing.T) {
	p := New(Options{Format: FormatTxt})
	sink := &memSink{}
	if err := p.Write(sink, nil, parse(t, `{"b":1,  "a":"x&y"}`)); err != nil {
		t.Fatal(err)
	}
	if sink.lines[0] != `{"a":"x&y","b":1}` {
		t.Fatalf("line = %q", sink.lines[0])
	}
}

func TestTxt_SingleField(t *testing.T) {
	var logs bytes.Buffer
	p := New(Options{Format: FormatTxt, Single: "author", Log: zerolog.New(&logs)})
	sink := &memSink{}
	for _, l := range []string{`{"author":"Foo","id":"a"}`, `{"id":"b"}`, `{"author":7,"id":"c"}`} {
		if err := p.Write(sink, nil, parse(t, l)); err != nil {
			t.Fatalf("Write(%s): %v", l, err)
		}
	}
	if strings.Join(sink.lines, "|") != "Foo||7" {
		t.Fatalf("lines = %q", sink.lines)
	}
	kit.MustContain(t, logs.String(), "field not in object")
	kit.MustContain(t, logs.String(), `"id":"b"`)
}
