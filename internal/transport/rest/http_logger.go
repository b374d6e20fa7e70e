package rest

import (
	"net"
	"net/http"
	"time"

	"github.com/zenith-events/zenith/internal/pkg/logger"
)

// responseMeter wraps the writer to capture what went out on the wire.
type responseMeter struct {
	http.ResponseWriter
	status  int
	written int
}

func (m *responseMeter) WriteHeader(code int) {
	m.status = code
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(p []byte) (int, error) {
	// implicit 200 when the handler never called WriteHeader
	if m.status == 0 {
		m.status = http.StatusOK
	}
	n, err := m.ResponseWriter.Write(p)
	m.written += n
	return n, err
}

// HTTPLogger emits one structured access-log line per request, tagged with
// the request id already placed in the context by RequestID.
func HTTPLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		meter := &responseMeter{ResponseWriter: w}

		next.ServeHTTP(meter, r)

		remote := r.RemoteAddr
		if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			remote = host
		}

		logger.WithCtx(r.Context()).
			Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", remote).
			Int("status", meter.status).
			Int("bytes", meter.written).
			Dur("duration", time.Since(started)).
			Msg("http_request")
	})
}
