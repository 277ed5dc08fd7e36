// Package channel connects the bot to the WhatsApp gateway: an outbound HTTP
// sender, a websocket listener for the inbound message stream, and an HTTP
// webhook as the alternative inbound path.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/atendeai/clinicbot/internal/dialog"
	"github.com/atendeai/clinicbot/pkg/logging"
)

var gatewayTracer = otel.Tracer("clinicbot.internal.channel.gateway")

// GatewaySender posts outbound messages to the WhatsApp gateway's REST API.
type GatewaySender struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewGatewaySender builds a sender for the gateway at baseURL.
func NewGatewaySender(baseURL, token string, logger *logging.Logger) *GatewaySender {
	if logger == nil {
		logger = logging.Default()
	}
	return &GatewaySender{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ dialog.Messenger = (*GatewaySender)(nil)

// SendText dispatches a single message via the gateway, retrying transient
// failures.
func (s *GatewaySender) SendText(ctx context.Context, to, body string) error {
	if s.baseURL == "" {
		return errors.New("channel: gateway base url missing")
	}
	if to == "" {
		return errors.New("channel: to required")
	}
	if strings.TrimSpace(body) == "" {
		return errors.New("channel: body required")
	}

	ctx, span := gatewayTracer.Start(ctx, "channel.gateway.send")
	defer span.End()
	span.SetAttributes(attribute.String("clinicbot.to", to))

	payload, err := json.Marshal(map[string]string{
		"to":   to,
		"text": body,
	})
	if err != nil {
		return fmt.Errorf("channel: marshal gateway payload: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/messages", bytes.NewReader(payload))
		if err != nil {
			lastErr = err
			break
		}
		req.Header.Set("Content-Type", "application/json")
		if s.token != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				s.logger.Debug("channel: message sent", "to", to)
				return nil
			}
			if len(respBody) > 0 {
				lastErr = fmt.Errorf("channel: gateway send failed: status %d, body: %s", resp.StatusCode, respBody)
			} else {
				lastErr = fmt.Errorf("channel: gateway send failed: status %d", resp.StatusCode)
			}
			// Client errors won't recover on retry.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				break
			}
		}

		if attempt < 3 {
			time.Sleep(time.Duration(200+rand.Intn(300)) * time.Millisecond)
		}
	}

	if lastErr != nil {
		span.RecordError(lastErr)
		s.logger.Error("channel: failed to send message", "error", lastErr, "to", to)
	}
	return lastErr
}
