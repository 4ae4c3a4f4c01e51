package log

import "strings"

// Printer adapts a LoggerService to libraries that log through a single
// Printf method, such as the gorm logger.
type Printer struct {
	log   LoggerService
	level LogLevel
}

func NewPrinter(logger LoggerService, level LogLevel) Printer {
	return Printer{log: logger, level: level}
}

func (p Printer) Printf(format string, args ...any) {
	format = strings.TrimRight(format, "\n")

	switch p.level {
	case Debug:
		p.log.Debug(format, args...)
	case Warn:
		p.log.Warn(format, args...)
	case Error, Fatal:
		p.log.Error(format, args...)
	default:
		p.log.Info(format, args...)
	}
}
