package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reviewrota/internal/pkg/logger"
	"reviewrota/internal/service"

	"github.com/codeGROOVE-dev/retry"
)

const (
	maxSendAttempts   = 4
	initialSendDelay  = 500 * time.Millisecond
	maxSendDelay      = 5 * time.Second
	maxResponseLength = 1 << 20
)

// ChatWebhook delivers review notifications through the chat platform's
// inbound webhook. Each call is one POST, retried with backoff; the engine
// decides which failures matter.
type ChatWebhook struct {
	url    string
	client *http.Client
	logger *logger.Logger
}

func NewChatWebhook(url string, timeout time.Duration, logger *logger.Logger) *ChatWebhook {
	return &ChatWebhook{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.Component("notify/chat"),
	}
}

type chatMessage struct {
	Kind      string `json:"kind"` // "offer", "update" or "thread"
	Recipient string `json:"recipient,omitempty"`
	ThreadID  string `json:"thread_id,omitempty"`
	Handle    string `json:"handle,omitempty"`
	Text      string `json:"text"`
}

type chatResponse struct {
	MessageID string `json:"message_id"`
}

// SendOffer messages the reviewer about a new pending slot. The returned
// handle is the platform's message id, used later to update that message.
func (c *ChatWebhook) SendOffer(ctx context.Context, reviewerID string, offer service.Offer) (string, error) {
	text := offerText(offer)

	resp, err := c.post(ctx, "send offer", chatMessage{
		Kind:      "offer",
		Recipient: reviewerID,
		ThreadID:  offer.ReviewID,
		Text:      text,
	})
	if err != nil {
		return "", err
	}

	return resp.MessageID, nil
}

func (c *ChatWebhook) UpdateOffer(ctx context.Context, reviewerID, handle, text string) error {
	_, err := c.post(ctx, "update offer", chatMessage{
		Kind:      "update",
		Recipient: reviewerID,
		Handle:    handle,
		Text:      text,
	})
	return err
}

func (c *ChatWebhook) PostToThread(ctx context.Context, reviewID, text string) error {
	_, err := c.post(ctx, "thread post", chatMessage{
		Kind:     "thread",
		ThreadID: reviewID,
		Text:     text,
	})
	return err
}

func (c *ChatWebhook) post(ctx context.Context, operation string, msg chatMessage) (*chatResponse, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal chat message: %w", err)
	}

	var parsed chatResponse
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
			if err != nil {
				return fmt.Errorf("build request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("post webhook: %w", err)
			}
			defer resp.Body.Close()

			payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLength))
			if err != nil {
				return fmt.Errorf("read webhook response: %w", err)
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, payload)
			}

			if len(payload) > 0 {
				// some platforms answer with plain "ok"
				if err := json.Unmarshal(payload, &parsed); err != nil {
					c.logger.Debug("non-json webhook response", "body", string(payload))
				}
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxSendAttempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(initialSendDelay),
		retry.MaxDelay(maxSendDelay),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("chat delivery retry",
				"operation", operation,
				"attempt", n+1,
				"error", err,
			)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	return &parsed, nil
}

func offerText(offer service.Offer) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s asked for a review of %s", offer.RequestorID, strings.Join(offer.Languages, ", "))
	if offer.DueBy != "none" && offer.DueBy != "" {
		fmt.Fprintf(&b, " (due %s)", offer.DueBy)
	}
	fmt.Fprintf(&b, ". Respond by %s.", offer.RespondBy.Format("Mon 15:04"))
	return b.String()
}
