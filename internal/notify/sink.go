package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Permission is the decision state of the system notification sink.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// permissionKey records the one-time permission decision in local storage.
const permissionKey = "taskflow-notify-permission"

// Notification is a system-level alert with a tag for client-side collapsing.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
}

// Sink delivers system-level notifications. Sends are gated on a previously
// granted permission; the permission is requested at most once.
type Sink interface {
	Permission(ctx context.Context) Permission
	RequestPermission(ctx context.Context) Permission
	Send(ctx context.Context, n Notification) error
}

// WebhookSink posts notifications as JSON to a configured endpoint.
// Permission is granted when an endpoint is configured, and the decision is
// recorded durably so it is made only once. Sends are rate-limited so a
// large task list cannot flood the endpoint.
type WebhookSink struct {
	url     string
	client  *http.Client
	store   *redis.Client
	limiter *rate.Limiter
}

// NewWebhookSink creates a sink delivering to url. An empty url yields a
// sink whose permission request is denied.
func NewWebhookSink(url string, store *redis.Client) *WebhookSink {
	return &WebhookSink{
		url:     url,
		client:  &http.Client{Timeout: 10 * time.Second},
		store:   store,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// Permission returns the recorded decision, or default when none was made.
func (s *WebhookSink) Permission(ctx context.Context) Permission {
	v, err := s.store.Get(ctx, permissionKey).Result()
	if err == redis.Nil {
		return PermissionDefault
	}
	if err != nil {
		log.Printf("notify: read permission: %v", err)
		return PermissionDefault
	}
	switch p := Permission(v); p {
	case PermissionGranted, PermissionDenied:
		return p
	}
	return PermissionDefault
}

// RequestPermission decides and durably records the permission.
func (s *WebhookSink) RequestPermission(ctx context.Context) Permission {
	p := PermissionDenied
	if s.url != "" {
		p = PermissionGranted
	}
	if err := s.store.Set(ctx, permissionKey, string(p), 0).Err(); err != nil {
		log.Printf("notify: record permission: %v", err)
	}
	return p
}

// Send posts the notification to the webhook endpoint.
func (s *WebhookSink) Send(ctx context.Context, n Notification) error {
	if s.url == "" {
		return fmt.Errorf("notification sink disabled")
	}
	if !s.limiter.Allow() {
		log.Printf("notify: rate limited, dropping notification %q", n.Title)
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("deliver notification: endpoint returned %d", resp.StatusCode)
	}
	return nil
}
