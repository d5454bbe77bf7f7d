// Package contact forwards contact form submissions to a Google Form.
package contact

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tsundoku/internal/config"
	"tsundoku/internal/metrics"
)

const forwardTimeout = 10 * time.Second

// Message is one submission.
type Message struct {
	Name    string
	Email   string
	Content string
}

type Forwarder struct {
	cfg  config.ContactConfig
	http *http.Client
	log  logrus.FieldLogger
}

func NewForwarder(cfg config.ContactConfig, client *http.Client, log logrus.FieldLogger) *Forwarder {
	if client == nil {
		client = &http.Client{Timeout: forwardTimeout}
	}
	return &Forwarder{cfg: cfg, http: client, log: log.WithField("component", "contact")}
}

// Forward posts the message to the form. Failures are logged and returned.
func (f *Forwarder) Forward(ctx context.Context, m Message) error {
	form := url.Values{}
	form.Set(f.cfg.NameEntry, m.Name)
	form.Set(f.cfg.EmailEntry, m.Email)
	form.Set(f.cfg.ContentEntry, m.Content)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.FormURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		metrics.RecordExternalCall("google_forms", "degraded", time.Since(start))
		f.log.WithError(err).Warn("forward contact message")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		metrics.RecordExternalCall("google_forms", "degraded", time.Since(start))
		f.log.WithField("status", resp.StatusCode).Warn("contact form rejected message")
		return fmt.Errorf("contact form status %d", resp.StatusCode)
	}
	metrics.RecordExternalCall("google_forms", "ok", time.Since(start))
	return nil
}
