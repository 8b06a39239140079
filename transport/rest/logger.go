package rest

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// requestLogFormatter sends chi's request logs through the service logger.
type requestLogFormatter struct {
	logger *slog.Logger
}

func (that *requestLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &requestLogEntry{
		logger: that.logger.With(
			"request_id", middleware.GetReqID(r.Context()),
			"http_method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		),
	}
}

type requestLogEntry struct {
	logger *slog.Logger
}

func (that *requestLogEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ any) {
	that.logger.Info("request served", "status", status, "bytes", bytes, "elapsed", elapsed.String())
}

func (that *requestLogEntry) Panic(v any, stack []byte) {
	that.logger.Error("request panicked", "panic", fmt.Sprint(v), "stack", string(stack))
}
