package modkit

import (
	"bytes"
	"testing"

	"dumpsift/internal/platform/config"
	kit "dumpsift/internal/platform/testkit"

	"github.com/rs/zerolog"
)

func TestDeps_ZeroValueIsUsable(t *testing.T) {
	t.Parallel()
	var d Deps
	d.Log.Info().Msg("dropped") // zero logger has no writer
	_ = d.Cfg.MayString("ANY", "x")
}

func TestDeps_Named(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	d := Deps{Log: zerolog.New(&buf), Cfg: config.New()}
	n := d.Named("extract")
	n.Log.Info().Msg("hello")
	kit.MustContain(t, buf.String(), `"component":"extract"`)

	d.Log.Info().Msg("root")
	if bytes.Count(buf.Bytes(), []byte(`"component"`)) != 1 {
		t.Fatalf("Named must not mutate the original deps: %s", buf.String())
	}
}
