package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestParseID(t *testing.T) {
	testCases := []struct {
		name       string
		pathValue  string
		expectedID int64
		expectedOK bool
	}{
		{name: "valid", pathValue: "42", expectedID: 42, expectedOK: true},
		{name: "zero", pathValue: "0", expectedOK: false},
		{name: "negative", pathValue: "-3", expectedOK: false},
		{name: "not a number", pathValue: "abc", expectedOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.SetPathValue("id", tc.pathValue)
			rr := httptest.NewRecorder()

			// when
			id, ok := ParseID(rr, req, discardLogger)

			// then
			assert.Equal(t, tc.expectedOK, ok)
			if tc.expectedOK {
				assert.Equal(t, tc.expectedID, id)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"error":"Invalid ID: `+tc.pathValue+`"}`, rr.Body.String())
		})
	}
}

func TestParseQueryGt(t *testing.T) {
	testCases := []struct {
		name          string
		query         string
		expectedValue int
		expectedOK    bool
	}{
		{name: "absent uses fallback", query: "", expectedValue: 10, expectedOK: true},
		{name: "valid", query: "?limit=5", expectedValue: 5, expectedOK: true},
		{name: "zero rejected", query: "?limit=0", expectedOK: false},
		{name: "garbage rejected", query: "?limit=ten", expectedOK: false},
		{name: "overflow rejected", query: "?limit=99999999999", expectedOK: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			rr := httptest.NewRecorder()

			value, ok := ParseQueryGt(req, rr, discardLogger, "limit", 0, 10)

			assert.Equal(t, tc.expectedOK, ok)
			if tc.expectedOK {
				assert.Equal(t, tc.expectedValue, value)
			} else {
				assert.Equal(t, http.StatusBadRequest, rr.Code)
			}
		})
	}
}

func TestRespondJSON_NilPayload(t *testing.T) {
	rr := httptest.NewRecorder()

	RespondJSON(rr, discardLogger, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestRecoverer(t *testing.T) {
	// given
	handler := Recoverer(discardLogger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()

	// when
	require.NotPanics(t, func() {
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	})

	// then
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRecoverer_JSONBody(t *testing.T) {
	handler := Recoverer(discardLogger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rr.Body.String())
}

func TestRecoverer_AbortHandler(t *testing.T) {
	handler := Recoverer(discardLogger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.Panics(t, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, levelFor(http.StatusOK))
	assert.Equal(t, slog.LevelWarn, levelFor(http.StatusNotFound))
	assert.Equal(t, slog.LevelError, levelFor(http.StatusInternalServerError))
}
