package dialog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/atendeai/clinicbot/internal/notify"
	"github.com/atendeai/clinicbot/internal/observability/metrics"
	"github.com/atendeai/clinicbot/pkg/logging"
)

// Messenger sends one text message to a contact. Delivery failures are logged
// by the worker and never retried here.
type Messenger interface {
	SendText(ctx context.Context, to, body string) error
}

// TranscriptLogger records the conversation for later review. Implementations
// must tolerate being nil-valued; failures never fail a turn.
type TranscriptLogger interface {
	Append(ctx context.Context, contactID, role, body string) error
}

const (
	transcriptRoleUser      = "user"
	transcriptRoleAssistant = "assistant"

	sendTimeout = 15 * time.Second
)

// WorkerConfig carries the worker's collaborators.
type WorkerConfig struct {
	Engine     *Engine
	Queue      *Queue
	Messenger  Messenger
	Notifier   notify.Notifier
	Transcript TranscriptLogger
	Metrics    *metrics.BotMetrics
	Logger     *logging.Logger
	// Workers is the number of consumer goroutines; per-contact locking keeps
	// turns for the same contact serialized regardless. Defaults to 1,
	// matching the single logical stream of the channel.
	Workers int
}

// Worker consumes inbound events from the queue, runs the dialog engine, and
// executes the resulting side effects: replies, operator alerts, and the
// delayed re-presentation of the menu after a completed flow.
type Worker struct {
	engine     *Engine
	queue      *Queue
	messenger  Messenger
	notifier   notify.Notifier
	transcript TranscriptLogger
	metrics    *metrics.BotMetrics
	logger     *logging.Logger
	workers    int

	locks contactLocks
	wg    sync.WaitGroup
}

// NewWorker creates a worker.
func NewWorker(cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Worker{
		engine:     cfg.Engine,
		queue:      cfg.Queue,
		messenger:  cfg.Messenger,
		notifier:   cfg.Notifier,
		transcript: cfg.Transcript,
		metrics:    cfg.Metrics,
		logger:     logger,
		workers:    workers,
	}
}

// Start launches the consumer goroutines. They run until ctx is canceled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.run(ctx)
		}()
	}
}

// Wait blocks until every consumer goroutine has exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context) {
	for {
		msg, err := w.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		w.process(ctx, msg)
	}
}

func (w *Worker) process(ctx context.Context, msg Message) {
	var in Inbound
	if err := json.Unmarshal(msg.Body, &in); err != nil {
		w.logger.Error("worker: malformed inbound payload", "error", err, "message_id", msg.ID)
		w.metrics.ObserveInbound("malformed")
		return
	}
	if in.ContactID == "" {
		w.logger.Warn("worker: inbound without contact id dropped", "message_id", msg.ID)
		w.metrics.ObserveInbound("malformed")
		return
	}

	// One turn at a time per contact: a rapid double-send must not interleave
	// step advancement.
	unlock := w.locks.lock(in.ContactID)
	defer unlock()

	w.logTranscript(ctx, in.ContactID, transcriptRoleUser, in.Text)

	result, err := w.engine.Handle(ctx, in)
	if err != nil {
		// ProcessingError: apologize and leave the session untouched so the
		// next message retries the same step.
		w.logger.Error("worker: turn failed", "error", err, "contact", in.ContactID)
		w.metrics.ObserveInbound("error")
		w.send(ctx, in.ContactID, msgApology)
		return
	}
	w.metrics.ObserveInbound("handled")

	for _, reply := range result.Replies {
		w.send(ctx, in.ContactID, reply)
	}

	if result.Alert != nil && w.notifier != nil {
		w.fireAlert(ctx, *result.Alert)
	}

	if result.FollowUpMenu != nil {
		w.scheduleMenu(in.ContactID, *result.FollowUpMenu)
	}
}

// send delivers one reply. A send failure is a ChannelError: logged, counted,
// not retried.
func (w *Worker) send(ctx context.Context, contactID, body string) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	if err := w.messenger.SendText(sendCtx, contactID, body); err != nil {
		w.logger.Error("worker: send failed", "error", err, "contact", contactID)
		w.metrics.ObserveOutbound("failed")
		return
	}
	w.metrics.ObserveOutbound("sent")
	w.logTranscript(ctx, contactID, transcriptRoleAssistant, body)
}

// fireAlert raises the operator alert without blocking the message stream;
// the notifier may hold the notification open until dismissed.
func (w *Worker) fireAlert(ctx context.Context, alert notify.Alert) {
	w.metrics.ObserveAlert()
	go func() {
		if err := w.notifier.Alert(context.WithoutCancel(ctx), alert); err != nil {
			w.logger.Error("worker: operator alert failed", "error", err)
		}
	}()
}

// scheduleMenu re-presents the main menu after the configured delay. A timer
// rather than a sleep, so one contact's delay never stalls the stream for
// everyone else.
func (w *Worker) scheduleMenu(contactID string, followUp FollowUpMenu) {
	body := w.engine.MenuMessage(followUp.Name)
	time.AfterFunc(followUp.After, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		unlock := w.locks.lock(contactID)
		defer unlock()

		if err := w.messenger.SendText(ctx, contactID, body); err != nil {
			w.logger.Error("worker: follow-up menu send failed", "error", err, "contact", contactID)
			w.metrics.ObserveOutbound("failed")
			return
		}
		w.metrics.ObserveOutbound("sent")
		w.logTranscript(ctx, contactID, transcriptRoleAssistant, body)
	})
}

func (w *Worker) logTranscript(ctx context.Context, contactID, role, body string) {
	if w.transcript == nil {
		return
	}
	if err := w.transcript.Append(ctx, contactID, role, body); err != nil {
		w.logger.Warn("worker: transcript append failed", "error", err, "contact", contactID)
	}
}

// contactLocks hands out one mutex per contact identifier. The map only grows
// with distinct contacts, which is small for a single clinic's deployment.
type contactLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

func (c *contactLocks) lock(key string) (unlock func()) {
	c.mu.Lock()
	if c.m == nil {
		c.m = make(map[string]*sync.Mutex)
	}
	l, ok := c.m[key]
	if !ok {
		l = &sync.Mutex{}
		c.m[key] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}
