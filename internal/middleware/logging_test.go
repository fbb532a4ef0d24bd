package middleware_test

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/social-feed/internal/middleware"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLogger_RecordsRequest(t *testing.T) {
	var buf bytes.Buffer

	h := chimiddleware.RequestID(middleware.Logger(newLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/posts", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	line := buf.String()
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, line, "level=INFO")
	assert.Contains(t, line, "method=POST")
	assert.Contains(t, line, "path=/posts")
	assert.Contains(t, line, "status=201")
	assert.Contains(t, line, "bytes=5")
	assert.Contains(t, line, "request_id=req-123")
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"server error", "/feed", http.StatusBadGateway, "level=ERROR"},
		{"client error", "/feed", http.StatusUnprocessableEntity, "level=WARN"},
		{"static asset", "/static/style.css", http.StatusOK, "level=DEBUG"},
		{"page", "/feed", http.StatusOK, "level=INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := middleware.Logger(newLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestLogger_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	h := middleware.Logger(newLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, buf.String(), "status=200")
}

// headerCounter counts WriteHeader calls that reach the real writer.
type headerCounter struct {
	*httptest.ResponseRecorder
	calls int
}

func (h *headerCounter) WriteHeader(code int) {
	h.calls++
	h.ResponseRecorder.WriteHeader(code)
}

func TestLogger_SecondWriteHeaderIsDropped(t *testing.T) {
	tests := []struct {
		name  string
		write func(w http.ResponseWriter)
		want  int
	}{
		{"after WriteHeader", func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusSeeOther)
			w.WriteHeader(http.StatusInternalServerError)
		}, http.StatusSeeOther},
		{"after Write", func(w http.ResponseWriter) {
			_, _ = w.Write([]byte("page"))
			w.WriteHeader(http.StatusInternalServerError)
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := middleware.Logger(newLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.write(w)
			}))

			rec := &headerCounter{ResponseRecorder: httptest.NewRecorder()}
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/feed", nil))

			assert.Equal(t, tt.want, rec.Code)
			assert.LessOrEqual(t, rec.calls, 1)
			assert.Contains(t, buf.String(), fmt.Sprintf("status=%d", tt.want))
		})
	}
}
