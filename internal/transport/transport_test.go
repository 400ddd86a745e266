package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modfin/brevq"
	"github.com/modfin/brevq/internal/config"
	"github.com/modfin/brevq/pkg/zid"
	"github.com/stretchr/testify/require"
)

var msg = Message{
	ID:      "cmmtf1a5s4c6bgrdsaq0",
	Attempt: 2,
	From:    "Sender <noreply@example.com>",
	To:      "someone@example.com",
	Subject: "hello",
	HTML:    "<p>hi</p>",
}

func TestWithTimeout(t *testing.T) {
	slow := Func(func(ctx context.Context, msg Message) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})
	err := WithTimeout(slow, 10*time.Millisecond).Send(context.Background(), msg)
	require.ErrorIs(t, err, ErrTimeout)

	fast := Func(func(ctx context.Context, msg Message) error { return nil })
	require.NoError(t, WithTimeout(fast, time.Second).Send(context.Background(), msg))

	boom := errors.New("boom")
	failing := Func(func(ctx context.Context, msg Message) error { return boom })
	require.ErrorIs(t, WithTimeout(failing, time.Second).Send(context.Background(), msg), boom)
}

func TestWithTimeout_ContextAware(t *testing.T) {
	waiting := Func(func(ctx context.Context, msg Message) error {
		<-ctx.Done()
		return ctx.Err()
	})
	err := WithTimeout(waiting, 10*time.Millisecond).Send(context.Background(), msg)
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMessageOf(t *testing.T) {
	e := brevq.QueuedEmail{ID: zid.New(), To: "a@example.com", From: "b@example.com", Subject: "s", HTML: "h", Attempts: 1}
	m := MessageOf(e)
	require.Equal(t, e.ID.String(), m.ID)
	require.Equal(t, 2, m.Attempt)
	require.Equal(t, "a@example.com", m.To)
}

func TestToEmail(t *testing.T) {
	e := toEmail(msg)
	require.Equal(t, []string{"someone@example.com"}, e.To)
	require.Equal(t, "<p>hi</p>", string(e.HTML))
	require.Equal(t, msg.ID, e.Headers.Get("X-Brevq-Id"))
}

func TestResend(t *testing.T) {
	var got struct {
		From    string            `json:"from"`
		To      []string          `json:"to"`
		Subject string            `json:"subject"`
		Html    string            `json:"html"`
		Headers map[string]string `json:"headers"`
	}
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		key = r.Header.Get("Idempotency-Key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"re_123"}`))
	}))
	defer srv.Close()

	r, err := NewResend("re_test").WithBaseURL(srv.URL + "/")
	require.NoError(t, err)

	require.NoError(t, r.Send(context.Background(), msg))
	require.Equal(t, msg.ID+"/2", key)
	require.Equal(t, []string{msg.To}, got.To)
	require.Equal(t, msg.From, got.From)
	require.Equal(t, msg.HTML, got.Html)
	require.Equal(t, msg.ID, got.Headers["X-Brevq-Id"])
}

func TestResend_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"invalid from"}`))
	}))
	defer srv.Close()

	r, err := NewResend("re_test").WithBaseURL(srv.URL + "/")
	require.NoError(t, err)
	require.Error(t, r.Send(context.Background(), msg))
}

func TestNoop(t *testing.T) {
	n := NewNoop(nil)
	require.NoError(t, n.Send(context.Background(), msg))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, n.Send(ctx, msg), context.Canceled)
}

func TestFromConfig(t *testing.T) {
	tr, err := FromConfig(&config.Config{Transport: "noop", SendTimeout: time.Second}, nil)
	require.NoError(t, err)
	require.Equal(t, "noop", tr.Name())

	_, err = FromConfig(&config.Config{Transport: "resend"}, nil)
	require.Error(t, err)

	_, err = FromConfig(&config.Config{Transport: "pigeon"}, nil)
	require.Error(t, err)
}
