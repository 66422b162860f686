// Package webhook delivers spoken call lines to an external endpoint, such as
// the avatar or voice layer that renders them.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/contextsense/ai/types"
)

var (
	// timeout is the timeout for webhook request. Default to 10 seconds.
	timeout = 10 * time.Second
)

type CallLinePayload struct {
	URL    string         `json:"-"`
	CallID string         `json:"call_id"`
	Turn   int            `json:"turn"`
	Line   types.Response `json:"line"`
	SentAt time.Time      `json:"sent_at"`
}

// Post posts the payload to its webhook endpoint.
func Post(ctx context.Context, client *http.Client, payload *CallLinePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal webhook request to %s", payload.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, payload.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "failed to construct webhook request to %s", payload.URL)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "failed to post webhook to %s", payload.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("failed to post webhook %s, status code: %d, response body: %s", payload.URL, resp.StatusCode, b)
	}
	return nil
}

// LineSink posts every call line to a fixed URL without blocking the call.
// Lines of one call may arrive out of order; receivers order them by turn.
type LineSink struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewLineSink creates a sink for url.
func NewLineSink(url string) *LineSink {
	return &LineSink{
		url:    url,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// Line implements call.LineSink.
func (s *LineSink) Line(callID string, turn int, line types.Response) {
	payload := &CallLinePayload{
		URL:    s.url,
		CallID: callID,
		Turn:   turn,
		Line:   line,
		SentAt: s.now(),
	}
	go func() {
		if err := Post(context.Background(), s.client, payload); err != nil {
			slog.Warn("Failed to dispatch call line webhook",
				slog.String("url", payload.URL),
				slog.String("call_id", callID),
				slog.Int("turn", turn),
				slog.Any("err", err))
		}
	}()
}
