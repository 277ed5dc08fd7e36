package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atendeai/clinicbot/internal/notify"
	"github.com/atendeai/clinicbot/internal/oncall"
	"github.com/atendeai/clinicbot/internal/pricing"
	"github.com/atendeai/clinicbot/internal/session"
	"github.com/atendeai/clinicbot/pkg/logging"
)

// Result is everything one turn produced: ordered replies to the contact, an
// optional operator alert, and an optional scheduled re-presentation of the
// menu. The terminal step of a flow does not block on the re-menu delay; it
// hands the follow-up back to the caller as a timed event.
type Result struct {
	Replies      []string
	Alert        *notify.Alert
	FollowUpMenu *FollowUpMenu
}

// FollowUpMenu asks the caller to send the main menu to the contact after a
// fixed delay, addressed to Name.
type FollowUpMenu struct {
	Name  string
	After time.Duration
}

// EngineConfig carries the engine's collaborators and presentation settings.
type EngineConfig struct {
	Sessions      session.Store
	OnCall        *oncall.Resolver
	Prices        *pricing.Matcher
	Menu          Menu
	ClinicName    string
	EndoscopyDays []string
	ReMenuDelay   time.Duration
	Logger        *logging.Logger
	// Now overrides the clock for on-call lookups; defaults to time.Now.
	Now func() time.Time
}

// Engine drives one conversation turn at a time: menu dispatch when the
// contact is idle, step advancement when a flow is active.
type Engine struct {
	sessions      session.Store
	oncall        *oncall.Resolver
	prices        *pricing.Matcher
	menu          Menu
	clinicName    string
	endoscopyDays []string
	reMenuDelay   time.Duration
	logger        *logging.Logger
	now           func() time.Time
}

// NewEngine creates a dialog engine.
func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	menu := cfg.Menu
	if len(menu) == 0 {
		menu = FullMenu()
	}
	return &Engine{
		sessions:      cfg.Sessions,
		oncall:        cfg.OnCall,
		prices:        cfg.Prices,
		menu:          menu,
		clinicName:    cfg.ClinicName,
		endoscopyDays: cfg.EndoscopyDays,
		reMenuDelay:   cfg.ReMenuDelay,
		logger:        logger,
		now:           now,
	}
}

// Handle processes one inbound message. An active session routes the text to
// the current flow step; otherwise the text is matched against the menu keys,
// falling back to re-presenting the menu. Errors mean the turn failed without
// touching the stored session, so the next message retries the same step.
func (e *Engine) Handle(ctx context.Context, in Inbound) (Result, error) {
	name := addressName(in.DisplayName)

	sess, err := e.sessions.Get(ctx, in.ContactID)
	if err != nil {
		return Result{}, fmt.Errorf("dialog: load session: %w", err)
	}
	if sess != nil {
		// The finish key preempts an active flow: a contact can always bail
		// out mid-dialog instead of being forced to the terminal step.
		if item, ok := e.menu.Lookup(in.Text); ok && item.Action == ActionFinishSession {
			return e.dispatch(ctx, in.ContactID, ActionFinishSession, name)
		}
		return e.advanceFlow(ctx, in, sess, name)
	}

	item, ok := e.menu.Lookup(in.Text)
	if !ok {
		return Result{Replies: []string{e.MenuMessage(name)}}, nil
	}
	e.logger.Debug("dialog: menu action selected", "contact", in.ContactID, "label", item.Label)
	return e.dispatch(ctx, in.ContactID, item.Action, name)
}

// MenuMessage renders the main menu greeting addressed to name.
func (e *Engine) MenuMessage(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Olá %s! Sou o assistente virtual do %s. Como posso ajudá-lo hoje?\nOpções:", name, e.clinicName)
	for i, item := range e.menu {
		fmt.Fprintf(&b, "\n%d) %s", i+1, item.Label)
	}
	return b.String()
}

// dispatch runs a menu action for an idle contact.
func (e *Engine) dispatch(ctx context.Context, contactID string, action Action, name string) (Result, error) {
	switch action {
	case ActionScheduleAppointment:
		return e.startFlow(ctx, contactID, session.FlowScheduleAppointment, session.StepPatientName, msgAskPatientName)

	case ActionScheduleFollowUp:
		return e.startFlow(ctx, contactID, session.FlowScheduleFollowUp, session.StepPatientName, msgAskFollowUpPatientName)

	case ActionEscalateToHuman:
		return Result{
			Replies: []string{msgEscalationAck},
			Alert: &notify.Alert{
				Title:   alertTitle,
				Message: alertMessage,
				Sound:   true,
				Wait:    true,
			},
		}, nil

	case ActionPriceLookup:
		return e.startFlow(ctx, contactID, session.FlowPriceLookup, session.StepQuery, msgAskPriceQuery)

	case ActionOnCallDoctor:
		// Resolved immediately; no session is created.
		if doctor, ok := e.oncall.OnDuty(e.now()); ok {
			return Result{Replies: []string{msgOnDuty(doctor)}}, nil
		}
		return Result{Replies: []string{msgNoOneOnDuty}}, nil

	case ActionProcedureLookup:
		return e.startFlow(ctx, contactID, session.FlowProcedureLookup, session.StepQuery, msgAskProcedureQuery)

	case ActionEndoscopyDays:
		return Result{Replies: []string{msgEndoscopyDays(e.endoscopyDays)}}, nil

	case ActionExamPickup:
		return Result{Replies: []string{msgExamPickup}}, nil

	case ActionFinishSession:
		if err := e.sessions.Delete(ctx, contactID); err != nil {
			return Result{}, fmt.Errorf("dialog: finish session: %w", err)
		}
		return Result{Replies: []string{msgSessionClosed}}, nil

	default:
		return Result{}, fmt.Errorf("dialog: unknown menu action %d", action)
	}
}

func (e *Engine) startFlow(ctx context.Context, contactID string, flow session.Flow, step session.Step, prompt string) (Result, error) {
	if err := e.sessions.Put(ctx, contactID, session.New(flow, step)); err != nil {
		return Result{}, fmt.Errorf("dialog: start flow: %w", err)
	}
	return Result{Replies: []string{prompt}}, nil
}

// saveAndPrompt persists the session's updated step and answers with the
// prompt for the next step.
func (e *Engine) saveAndPrompt(ctx context.Context, contactID string, sess *session.Session, prompt string) (Result, error) {
	if err := e.sessions.Put(ctx, contactID, sess); err != nil {
		return Result{}, fmt.Errorf("dialog: save session: %w", err)
	}
	return Result{Replies: []string{prompt}}, nil
}

// schedulePrompts parameterizes the two scheduling flows, which share a step
// sequence but differ in wording.
type schedulePrompts struct {
	doctor        string
	time          string
	day           string
	confirmHeader string
}

var appointmentPrompts = schedulePrompts{
	doctor:        msgAskDoctor,
	time:          msgAskTime,
	day:           msgAskDay,
	confirmHeader: "Consulta agendada:",
}

var followUpPrompts = schedulePrompts{
	doctor:        msgAskFollowUpDoctor,
	time:          msgAskFollowUpTime,
	day:           msgAskFollowUpDay,
	confirmHeader: "Retorno agendado:",
}

// advanceFlow routes the message to the handler for the session's (flow, step).
func (e *Engine) advanceFlow(ctx context.Context, in Inbound, sess *session.Session, name string) (Result, error) {
	switch sess.Flow {
	case session.FlowScheduleAppointment:
		return e.advanceSchedule(ctx, in, sess, appointmentPrompts, func() string {
			// The confirmation menu greets the patient just scheduled.
			if first := FirstName(sess.Get("patient")); first != "" {
				return first
			}
			return name
		})

	case session.FlowScheduleFollowUp:
		return e.advanceSchedule(ctx, in, sess, followUpPrompts, func() string {
			return name
		})

	case session.FlowPriceLookup, session.FlowProcedureLookup:
		return e.finishLookup(ctx, in, sess, name)

	default:
		return Result{}, fmt.Errorf("dialog: session for %s has unknown flow %d", in.ContactID, sess.Flow)
	}
}

// advanceSchedule walks the fixed name → doctor → time → day sequence. Any
// text is accepted as the answer for the pending step; the step only ever
// moves forward.
func (e *Engine) advanceSchedule(ctx context.Context, in Inbound, sess *session.Session, prompts schedulePrompts, menuName func() string) (Result, error) {
	switch sess.Step {
	case session.StepPatientName:
		sess.Set("patient", FormatInput(in.Text))
		sess.Step = session.StepDoctor
		return e.saveAndPrompt(ctx, in.ContactID, sess, prompts.doctor)

	case session.StepDoctor:
		sess.Set("doctor", FormatInput(in.Text))
		sess.Step = session.StepTime
		return e.saveAndPrompt(ctx, in.ContactID, sess, prompts.time)

	case session.StepTime:
		sess.Set("time", in.Text)
		sess.Step = session.StepDay
		return e.saveAndPrompt(ctx, in.ContactID, sess, prompts.day)

	case session.StepDay:
		sess.Set("day", in.Text)
		confirmation := msgScheduleConfirmation(prompts.confirmHeader,
			sess.Get("patient"), sess.Get("doctor"), sess.Get("time"), sess.Get("day"))
		if err := e.sessions.Delete(ctx, in.ContactID); err != nil {
			return Result{}, fmt.Errorf("dialog: close flow: %w", err)
		}
		e.logger.Info("dialog: schedule flow completed", "contact", in.ContactID, "flow", int(sess.Flow))
		return Result{
			Replies:      []string{confirmation},
			FollowUpMenu: &FollowUpMenu{Name: menuName(), After: e.reMenuDelay},
		}, nil

	default:
		return Result{}, fmt.Errorf("dialog: flow %d has no step %d", sess.Flow, sess.Step)
	}
}

// finishLookup completes the single-step price / procedure flows. The matcher
// is the same for both; only the empty-result wording differs.
func (e *Engine) finishLookup(ctx context.Context, in Inbound, sess *session.Session, name string) (Result, error) {
	if sess.Step != session.StepQuery {
		return Result{}, fmt.Errorf("dialog: flow %d has no step %d", sess.Flow, sess.Step)
	}

	query := FormatInput(in.Text)
	results := e.prices.Find(query)

	var reply string
	switch {
	case len(results) > 0:
		reply = msgProcedureList(results)
	case sess.Flow == session.FlowProcedureLookup:
		reply = msgProcedureNotOffered(query)
	default:
		reply = msgPriceNotFound
	}

	if err := e.sessions.Delete(ctx, in.ContactID); err != nil {
		return Result{}, fmt.Errorf("dialog: close flow: %w", err)
	}
	return Result{
		Replies:      []string{reply},
		FollowUpMenu: &FollowUpMenu{Name: name, After: e.reMenuDelay},
	}, nil
}

// addressName derives the greeting name from the contact's profile name,
// falling back to a generic address when the channel did not supply one.
func addressName(displayName string) string {
	first := FirstName(displayName)
	if first == "" {
		return defaultAddressName
	}
	return FormatInput(first)
}
