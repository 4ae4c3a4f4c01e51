package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	config "github.com/mwantia/trainmap/internal/config/server"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerService interface {
	Debug(msg string, args ...any)

	Info(msg string, args ...any)

	Warn(msg string, args ...any)

	Error(msg string, args ...any)

	Fatal(msg string, args ...any)

	Named(name string) LoggerService
}

// sink is shared by a logger and every logger derived through Named, so
// lines written from different goroutines never interleave.
type sink struct {
	mutex  sync.Mutex
	writer io.Writer
	color  bool
}

func (s *sink) write(line []byte) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.writer.Write(line)
}

type LoggerServiceImpl struct {
	LoggerService

	cfg   config.LogServerConfig
	name  string
	level LogLevel
	out   *sink
}

type logEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
	Message   string `json:"message"`
}

func NewLoggerService(name string, cfg config.LogServerConfig) LoggerService {
	var writers []io.Writer
	if !cfg.NoTerminal {
		writers = append(writers, os.Stdout)
	}
	if cfg.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.Rotation.MaxSize,
			MaxBackups: cfg.Rotation.MaxBackups,
			MaxAge:     cfg.Rotation.MaxAge,
			Compress:   cfg.Rotation.Compress,
		})
	}

	out := &sink{writer: io.Discard, color: !cfg.NoTerminal && !cfg.NoColor && cfg.File == ""}
	if len(writers) > 0 {
		out.writer = io.MultiWriter(writers...)
	}
	return newLogger(name, cfg, out)
}

func newLogger(name string, cfg config.LogServerConfig, out *sink) *LoggerServiceImpl {
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}
	return &LoggerServiceImpl{
		cfg:   cfg,
		name:  name,
		level: Parse(cfg.Level),
		out:   out,
	}
}

func (impl *LoggerServiceImpl) format(level LogLevel, msg string) []byte {
	timestamp := time.Now().Format(impl.cfg.TimeFormat)

	if impl.cfg.JSON {
		data, err := json.Marshal(logEntry{
			Timestamp: timestamp,
			Level:     level.String(),
			Service:   impl.name,
			Message:   msg,
		})
		if err != nil {
			return fmt.Appendf(nil, "%s %s %s\n", timestamp, level, msg)
		}
		return append(data, '\n')
	}

	prefix := fmt.Sprintf("[%s] %-5s", timestamp, level)
	if impl.name != "" {
		prefix += " [" + impl.name + "]"
	}
	if impl.out.color {
		return fmt.Appendf(nil, "%s%s %s\033[0m\n", Color(level), prefix, msg)
	}
	return fmt.Appendf(nil, "%s %s\n", prefix, msg)
}

func (impl *LoggerServiceImpl) log(level LogLevel, msg string, args ...any) {
	if level < impl.level {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	impl.out.write(impl.format(level, msg))

	if level == Fatal {
		os.Exit(1)
	}
}

func (impl *LoggerServiceImpl) Debug(msg string, args ...any) {
	impl.log(Debug, msg, args...)
}

func (impl *LoggerServiceImpl) Info(msg string, args ...any) {
	impl.log(Info, msg, args...)
}

func (impl *LoggerServiceImpl) Warn(msg string, args ...any) {
	impl.log(Warn, msg, args...)
}

func (impl *LoggerServiceImpl) Error(msg string, args ...any) {
	impl.log(Error, msg, args...)
}

func (impl *LoggerServiceImpl) Fatal(msg string, args ...any) {
	impl.log(Fatal, msg, args...)
}

// Named returns a child logger whose name is appended to this one,
// e.g. "trainmap/feed".
func (impl *LoggerServiceImpl) Named(name string) LoggerService {
	if impl.name != "" {
		name = impl.name + "/" + name
	}
	return newLogger(name, impl.cfg, impl.out)
}
