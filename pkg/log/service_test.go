package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger(t *testing.T, cfg config.LogServerConfig) (*LoggerServiceImpl, *bytes.Buffer) {
	t.Helper()

	buf := &bytes.Buffer{}
	return newLogger("trainmap", cfg, &sink{writer: buf}), buf
}

func TestParse(t *testing.T) {
	assert.Equal(t, Debug, Parse("debug"))
	assert.Equal(t, Warn, Parse(" warning "))
	assert.Equal(t, Error, Parse("ERROR"))
	assert.Equal(t, Info, Parse("verbose"))
	assert.Equal(t, "WARN", Warn.String())
}

func TestLevelFiltering(t *testing.T) {
	impl, buf := newBufferedLogger(t, config.LogServerConfig{Level: "warn", NoColor: true})

	impl.Info("ignored %d", 1)
	assert.Empty(t, buf.String())

	impl.Warn("kept %d", 2)
	assert.Contains(t, buf.String(), "kept 2")
	assert.Contains(t, buf.String(), "[trainmap]")
}

func TestJSONOutputWithNamedLogger(t *testing.T) {
	impl, buf := newBufferedLogger(t, config.LogServerConfig{Level: "debug", JSON: true})

	impl.Named("feed").Debug("loaded %d trainings", 3)

	var entry logEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry.Level)
	assert.Equal(t, "trainmap/feed", entry.Service)
	assert.Equal(t, "loaded 3 trainings", entry.Message)
}

func TestNamedLoggersShareTheSink(t *testing.T) {
	impl, buf := newBufferedLogger(t, config.LogServerConfig{Level: "info"})

	impl.Named("map").Info("ready")
	impl.Named("bridge").Named("http").Error("failed %s", "twice")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[trainmap/map] ready")
	assert.Contains(t, lines[1], "[trainmap/bridge/http] failed twice")
}

func TestPrinterForwardsAtLevel(t *testing.T) {
	impl, buf := newBufferedLogger(t, config.LogServerConfig{Level: "warn"})

	NewPrinter(impl, Info).Printf("slow query %dms\n", 250)
	assert.Empty(t, buf.String())

	NewPrinter(impl, Warn).Printf("slow query %dms\n", 250)
	assert.Contains(t, buf.String(), "WARN  [trainmap] slow query 250ms\n")
}

func TestMessageWithoutArgsIsVerbatim(t *testing.T) {
	impl, buf := newBufferedLogger(t, config.LogServerConfig{Level: "info"})

	impl.Info("100% done")
	assert.Contains(t, buf.String(), "100% done")
}
