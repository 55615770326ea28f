package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Message is one outbound push: a channel-scoped recipient id and the
// rendered text. Notifications are fire-and-forget; a delivery failure is
// logged and never propagated into the workflow that produced it.
type Message struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// Pusher delivers a message to the external messaging channel.
type Pusher interface {
	Push(ctx context.Context, msg Message) error
}

type channelPusher struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *zap.Logger
}

// NewChannelPusher builds a Pusher against a LINE-style push endpoint. The
// http client timeout bounds every delivery so a slow channel API can never
// stall the worker loop.
func NewChannelPusher(endpoint, token string, timeout time.Duration, logger *zap.Logger) Pusher {
	return &channelPusher{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []pushMessage `json:"messages"`
}

type pushMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (p *channelPusher) Push(ctx context.Context, msg Message) error {
	body, err := json.Marshal(pushRequest{
		To:       msg.To,
		Messages: []pushMessage{{Type: "text", Text: msg.Text}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.logger.Warn("push rejected by channel API",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return fmt.Errorf("channel push: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// NopPusher discards every message. Used when no channel token is configured
// and in tests.
type NopPusher struct{}

func (NopPusher) Push(context.Context, Message) error { return nil }
