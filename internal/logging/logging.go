package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"wager-engine/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	outputMu sync.RWMutex
	output   io.Writer = os.Stdout
)

// Init configures the global zerolog logger. A log file, when set, receives
// a copy of every line and rotates at MaxMB.
func Init(cfg config.LogConfig) error {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var raw io.Writer = os.Stdout
	if cfg.File != "" {
		file, err := newRotatingFile(cfg.File, cfg.MaxMB)
		if err != nil {
			return err
		}
		raw = io.MultiWriter(os.Stdout, file)
	}
	setOutput(raw)

	var console io.Writer = raw
	if cfg.Pretty {
		console = zerolog.ConsoleWriter{Out: raw}
	}

	zerolog.SetGlobalLevel(level)
	ctx := zerolog.New(console).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
	return nil
}

// Writer is the raw JSON sink shared with the HTTP request logger.
func Writer() io.Writer {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return output
}

func setOutput(w io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	output = w
}
