package posthook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modfin/brevq"
	"github.com/modfin/brevq/tools"
	"github.com/stretchr/testify/require"
)

func TestNew_NoURL(t *testing.T) {
	h := New("", 0, tools.LoggerCloner(nil))
	require.Nil(t, h)
	require.NoError(t, h.Post(context.Background(), brevq.Posthook{EmailID: "x"}))
}

func TestPost(t *testing.T) {
	got := make(chan brevq.Posthook, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var hook brevq.Posthook
		require.NoError(t, json.NewDecoder(r.Body).Decode(&hook))
		got <- hook
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	h := New(srv.URL, time.Second, tools.LoggerCloner(nil))
	err := h.Post(context.Background(), brevq.Posthook{
		EmailID: "abc",
		To:      "a@example.com",
		Attempt: 2,
		Event:   brevq.EventDeferred,
		Info:    "connection refused",
	})
	require.NoError(t, err)

	hook := <-got
	require.Equal(t, "abc", hook.EmailID)
	require.Equal(t, 2, hook.Attempt)
	require.Equal(t, brevq.EventDeferred, hook.Event)
	require.Equal(t, "connection refused", hook.Info)
}

func TestPost_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	h := New(srv.URL, time.Second, tools.LoggerCloner(nil))
	require.Error(t, h.Post(context.Background(), brevq.Posthook{EmailID: "abc", Event: brevq.EventDelivered}))
}
