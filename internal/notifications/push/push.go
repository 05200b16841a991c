// Package push delivers browser Web Push notifications signed with the VAPID key pair.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/angelmondragon/mealbridge-backend/pkg/config"
	"github.com/angelmondragon/mealbridge-backend/pkg/types"
)

// Outcome labels a dispatch attempt.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result is returned from every dispatch; callers decide whether to log, count or ignore it.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Err        error
}

func Sent(status int) Result  { return Result{Outcome: OutcomeSent, StatusCode: status} }
func Skipped() Result         { return Result{Outcome: OutcomeSkipped} }
func Failed(err error) Result { return Result{Outcome: OutcomeFailed, Err: err} }

// Message is the JSON payload handed to the service worker.
type Message struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// Sender dispatches one message to one stored subscription.
type Sender interface {
	Send(ctx context.Context, subscription types.JSONObject, msg Message) Result
}

type sendFunc func(ctx context.Context, message []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

// WebPushSender is the live Sender backed by webpush-go.
type WebPushSender struct {
	cfg    config.PushConfig
	client webpush.HTTPClient
	send   sendFunc
}

// NewWebPushSender validates the VAPID configuration.
func NewWebPushSender(cfg config.PushConfig, client webpush.HTTPClient) (*WebPushSender, error) {
	if strings.TrimSpace(cfg.VAPIDPublicKey) == "" || strings.TrimSpace(cfg.VAPIDPrivateKey) == "" {
		return nil, errors.New("vapid key pair is required")
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.DispatchTimeout}
	}
	// webpush-go adds the mailto: scheme itself.
	cfg.Subscriber = strings.TrimPrefix(cfg.Subscriber, "mailto:")
	return &WebPushSender{cfg: cfg, client: client, send: webpush.SendNotificationWithContext}, nil
}

func (s *WebPushSender) Send(ctx context.Context, subscription types.JSONObject, msg Message) Result {
	if subscription.IsEmpty() {
		return Skipped()
	}

	var sub webpush.Subscription
	if err := json.Unmarshal(subscription, &sub); err != nil {
		return Failed(fmt.Errorf("decode subscription: %w", err))
	}
	if sub.Endpoint == "" {
		return Skipped()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return Failed(fmt.Errorf("encode message: %w", err))
	}

	resp, err := s.send(ctx, payload, &sub, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTLSeconds,
	})
	if err != nil {
		return Failed(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{
			Outcome:    OutcomeFailed,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("push service responded %d", resp.StatusCode),
		}
	}
	return Sent(resp.StatusCode)
}
