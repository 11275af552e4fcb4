package logging

import (
	"io"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// New builds the process logger. format is "logfmt" (default) or "json";
// lvl is one of debug, info, warn, error and defaults to info.
func New(lvl, format string) log.Logger {
	return NewWithWriter(os.Stdout, lvl, format)
}

// NewWithWriter is New writing to w.
func NewWithWriter(w io.Writer, lvl, format string) log.Logger {
	var logger log.Logger
	if strings.EqualFold(format, "json") {
		logger = log.NewJSONLogger(log.NewSyncWriter(w))
	} else {
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
	}
	logger = level.NewFilter(logger, allow(lvl))
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}

func allow(lvl string) level.Option {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}
