package app

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MemoryLog keeps the tail of the log for the `api/log` endpoint.
var MemoryLog = newBuffer(1 << 16)

var Logger zerolog.Logger

// GetLogger returns the app logger, optionally re-leveled for the module
// via the `log:` config map (e.g. `log: {pipeline: debug}`).
func GetLogger(module string) zerolog.Logger {
	if s, ok := modules[module]; ok {
		lvl, err := zerolog.ParseLevel(s)
		if err == nil {
			return Logger.Level(lvl)
		}
		Logger.Warn().Err(err).Caller().Send()
	}

	return Logger
}

// initLogger support:
// - output: empty (only to memory), stderr, stdout
// - format: empty (autodetect color support), color, json, text
// - time:   empty (disable timestamp), UNIXMS, UNIXMICRO, UNIXNANO
// - level:  disabled, trace, debug, info, warn, error...
func initLogger() {
	var cfg struct {
		Mod map[string]string `yaml:"log"`
	}

	cfg.Mod = modules // defaults

	LoadConfig(&cfg)

	var writer io.Writer

	switch modules["output"] {
	case "stderr":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	}

	timeFormat := modules["time"]

	if writer != nil {
		if format := modules["format"]; format != "json" {
			console := &zerolog.ConsoleWriter{Out: writer}

			switch format {
			case "text":
				console.NoColor = true
			case "color":
				console.NoColor = false
			default:
				// autodetection if output support color
				console.NoColor = !isatty.IsTerminal(writer.(*os.File).Fd())
			}

			if timeFormat != "" {
				console.TimeFormat = "15:04:05.000"
			} else {
				console.PartsOrder = []string{
					zerolog.LevelFieldName,
					zerolog.CallerFieldName,
					zerolog.MessageFieldName,
				}
			}

			writer = console
		}

		writer = zerolog.MultiLevelWriter(writer, MemoryLog)
	} else {
		writer = MemoryLog
	}

	lvl, _ := zerolog.ParseLevel(modules["level"])
	Logger = zerolog.New(writer).Level(lvl)

	if timeFormat != "" {
		zerolog.TimeFieldFormat = timeFormat
		Logger = Logger.With().Timestamp().Logger()
	}

	log.Logger = Logger
}

// modules log levels
var modules = map[string]string{
	"format": "",
	"level":  "info",
	"output": "stdout",
	"time":   zerolog.TimeFormatUnixMs,
}

// ringBuffer keeps the most recent size bytes of written data,
// trimmed to a line boundary when it overflows.
type ringBuffer struct {
	buf  []byte
	size int
}

func newBuffer(size int) *ringBuffer {
	return &ringBuffer{size: size}
}

func (b *ringBuffer) Write(p []byte) (n int, err error) {
	b.buf = append(b.buf, p...)

	if len(b.buf) > b.size {
		cut := len(b.buf) - b.size
		// drop the partial first line after the cut
		for cut < len(b.buf) && b.buf[cut-1] != '\n' {
			cut++
		}
		b.buf = b.buf[cut:]
	}

	return len(p), nil
}

func (b *ringBuffer) WriteTo(w io.Writer) (n int64, err error) {
	nn, err := w.Write(b.buf)
	return int64(nn), err
}

func (b *ringBuffer) Bytes() []byte {
	return b.buf
}

func (b *ringBuffer) Reset() {
	b.buf = nil
}
