package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spacemark/pagecache/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.DiscardHandler)

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	Success(w, map[string]string{"id": "0"}, discard)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, map[string]any{"id": "0"}, env.Data)
	assert.Empty(t, env.Error)
}

func TestJSON_ErrorStatus(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusNotFound, "x", nil)
	assert.False(t, decode(t, w).Success, "status >= 400 is not a success")
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "msg", discard) }, http.StatusBadRequest},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "msg", discard) }, http.StatusNotFound},
		{"generic", func(w http.ResponseWriter) { Error(w, http.StatusConflict, "msg", nil) }, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)
			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, "msg", env.Error)
		})
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
		msg    string
	}{
		{"not found", errors.NotFound("no list"), http.StatusNotFound, "NOT_FOUND", "no list"},
		{"wrapped validation", fmt.Errorf("add: %w", errors.Validation("bad record")), http.StatusBadRequest, "VALIDATION", "bad record"},
		{"not implemented", errors.NotImplemented("sorting"), http.StatusNotImplemented, "NOT_IMPLEMENTED", "sorting"},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError, "", "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, discard)
			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.msg, env.Error)
		})
	}
}

func TestMarkdown(t *testing.T) {
	w := httptest.NewRecorder()
	Markdown(w, "# title\n")
	assert.Equal(t, "text/markdown; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "# title\n", w.Body.String())
}
