package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Notification is the payload handed to a push gateway. Type mirrors the
// event kinds clients already understand.
type Notification struct {
	Type         string `json:"type"`
	SenderID     string `json:"senderId"`
	RecipientID  string `json:"recipientId"`
	RequestID    string `json:"requestId,omitempty"`
	InvitationID string `json:"invitationId,omitempty"`
	PlaydateID   string `json:"playdateId,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Notifier delivers a notification to a user's devices. Delivery is best
// effort: implementations report errors for logging but callers never fail a
// request over them.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NoopNotifier drops every notification. Used when no gateway is configured.
type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, Notification) error { return nil }

// GatewayNotifier posts notifications to an HTTP push gateway.
type GatewayNotifier struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewGateway builds a notifier for the given gateway base URL. apiKey may be
// empty for gateways without auth.
func NewGateway(baseURL, apiKey string, log zerolog.Logger) *GatewayNotifier {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	if apiKey != "" {
		c.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &GatewayNotifier{http: c, log: log}
}

func (g *GatewayNotifier) Notify(ctx context.Context, n Notification) error {
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(n).
		Post("/v1/push")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("push gateway returned %s", resp.Status())
	}
	g.log.Debug().
		Str("type", n.Type).
		Str("recipient", n.RecipientID).
		Msg("push notification sent")
	return nil
}
