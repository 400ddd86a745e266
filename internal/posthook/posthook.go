// Package posthook notifies an external http endpoint about send attempts.
package posthook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/modfin/brevq"
	"github.com/modfin/brevq/tools"
	"github.com/sirupsen/logrus"
	"net/http"
	"time"
)

const DefaultTimeout = 5 * time.Second

type Hooker struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// New returns nil when no url is configured, a nil Hooker posts nothing.
func New(url string, timeout time.Duration, lc *tools.Logger) *Hooker {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Hooker{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    lc.New("posthook"),
	}
}

// Post delivers the hook once. Failures are logged and returned, they never
// affect the state of the email.
func (h *Hooker) Post(ctx context.Context, hook brevq.Posthook) error {
	if h == nil {
		return nil
	}
	log := h.log.WithField("eid", hook.EmailID).WithField("event", hook.Event)

	body, err := json.Marshal(hook)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		log.WithError(err).Error("could not create posthook request")
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		log.WithError(err).Warn("posthook failed")
		return err
	}
	_ = resp.Body.Close()

	if resp.StatusCode >= 300 {
		err = fmt.Errorf("posthook target responded %s", resp.Status)
		log.WithError(err).Warn("posthook rejected")
		return err
	}
	log.Debug("posthook delivered")
	return nil
}
