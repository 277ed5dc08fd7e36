package channel

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/atendeai/clinicbot/internal/dialog"
	"github.com/atendeai/clinicbot/pkg/logging"
)

var webhookTracer = otel.Tracer("clinicbot.internal.channel.webhook")

// webhookSecretHeader carries the shared secret on inbound webhook calls.
const webhookSecretHeader = "X-Webhook-Secret"

// WebhookHandler accepts inbound messages pushed by the gateway over HTTP,
// for deployments where the websocket stream is not available.
type WebhookHandler struct {
	secret string
	queue  *dialog.Queue
	logger *logging.Logger
}

// NewWebhookHandler creates the inbound webhook handler. An empty secret
// disables verification.
func NewWebhookHandler(secret string, queue *dialog.Queue, logger *logging.Logger) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if queue == nil {
		panic("channel: queue cannot be nil")
	}
	return &WebhookHandler{
		secret: secret,
		queue:  queue,
		logger: logger,
	}
}

// ServeHTTP handles POST /webhook/whatsapp requests.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := webhookTracer.Start(r.Context(), "channel.webhook.inbound")
	defer span.End()

	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.secret != "" {
		got := r.Header.Get(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("channel: webhook secret mismatch")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			span.RecordError(errors.New("webhook secret mismatch"))
			return
		}
	}

	var ev gatewayEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		h.logger.Error("channel: malformed webhook payload", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		span.RecordError(err)
		return
	}
	if ev.From == "" {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("clinicbot.from", ev.From))

	// Group and broadcast chats are acknowledged but never answered.
	if !strings.HasSuffix(ev.From, directChatSuffix) {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	body, err := json.Marshal(dialog.Inbound{
		ContactID:   ev.From,
		Text:        ev.Body,
		DisplayName: ev.PushName,
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		span.RecordError(err)
		return
	}
	if err := h.queue.Enqueue(ctx, body); err != nil {
		h.logger.Error("channel: enqueue webhook inbound failed", "error", err, "contact", ev.From)
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		span.RecordError(err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
