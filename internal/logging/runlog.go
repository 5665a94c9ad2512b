package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// RunLogger collects the resolved configuration of one CLI run — input,
// grading, feature switches — then emits a single structured zerolog event
// before processing starts. One event per run makes it easy to reconstruct
// exactly what produced a given output set.
type RunLogger struct {
	command        string
	input          string
	width          int
	height         int
	decodeDuration time.Duration

	features map[string]bool
	config   map[string]string
}

// NewRunLogger creates a RunLogger for the given subcommand name
// (e.g. "process", "inspect").
func NewRunLogger(command string) *RunLogger {
	return &RunLogger{
		command:  command,
		features: make(map[string]bool),
		config:   make(map[string]string),
	}
}

// Input records the source image path and its decoded dimensions.
func (r *RunLogger) Input(path string, width, height int) *RunLogger {
	r.input = path
	r.width = width
	r.height = height
	return r
}

// Feature registers a boolean feature switch (e.g. "autotone", "bundle").
func (r *RunLogger) Feature(name string, enabled bool) *RunLogger {
	r.features[name] = enabled
	return r
}

// Config registers a resolved configuration key-value pair.
func (r *RunLogger) Config(key, value string) *RunLogger {
	r.config[key] = value
	return r
}

// DecodeDuration records how long the input decode took.
func (r *RunLogger) DecodeDuration(d time.Duration) *RunLogger {
	r.decodeDuration = d
	return r
}

// EnvOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset. Useful for flag defaults
// that may be overridden via environment variables.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits a single structured INFO log event with all collected information.
func (r *RunLogger) Log() {
	evt := log.Info()

	runDict := zerolog.Dict().
		Str("command", r.command).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH)

	if r.input != "" {
		runDict = runDict.
			Str("input", r.input).
			Int("width", r.width).
			Int("height", r.height)
	}

	evt = evt.Dict("run", runDict)

	// Features and config — only non-empty maps are attached.
	if len(r.features) > 0 {
		d := zerolog.Dict()
		for k, v := range r.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	if len(r.config) > 0 {
		evt = evt.Dict("config", dictFromMap(r.config))
	}

	if r.decodeDuration > 0 {
		evt = evt.Dur("decodeDuration", r.decodeDuration)
	}

	evt.Msg("Run configured")
}

// dictFromMap converts a map[string]string into a zerolog.Event (Dict).
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
