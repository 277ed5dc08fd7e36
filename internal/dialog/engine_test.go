package dialog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendeai/clinicbot/internal/clinicdata"
	"github.com/atendeai/clinicbot/internal/oncall"
	"github.com/atendeai/clinicbot/internal/pricing"
	"github.com/atendeai/clinicbot/internal/session"
)

const testContact = "5511999990000@c.us"

func testEngine(t *testing.T, opts ...func(*EngineConfig)) (*Engine, session.Store) {
	t.Helper()
	store := session.NewMemoryStore(time.Hour)
	cfg := EngineConfig{
		Sessions: store,
		OnCall: oncall.NewResolver([]clinicdata.DutyRecord{
			{Day: "segunda", StartHour: 22, EndHour: 0, Doctor: "Dr. Silva"},
		}),
		Prices: pricing.NewMatcher([]clinicdata.ProcedureRecord{
			{Name: "Ultrassom Abdominal", Price: "150"},
			{Name: "Endoscopia Digestiva", Price: "350"},
		}),
		Menu:          FullMenu(),
		ClinicName:    "Hospital",
		EndoscopyDays: []string{"07/03", "08/03"},
		ReMenuDelay:   2 * time.Second,
		Now:           func() time.Time { return time.Date(2024, 3, 25, 23, 30, 0, 0, time.UTC) },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewEngine(cfg), cfg.Sessions
}

func handle(t *testing.T, e *Engine, text string) Result {
	t.Helper()
	res, err := e.Handle(context.Background(), Inbound{ContactID: testContact, Text: text, DisplayName: "maria souza"})
	require.NoError(t, err)
	return res
}

func TestUnknownInputYieldsMenu(t *testing.T) {
	e, _ := testEngine(t)

	for _, text := range []string{"0", "42", "oi, tudo bem?", ""} {
		res := handle(t, e, text)
		require.Len(t, res.Replies, 1, "input %q", text)
		assert.Contains(t, res.Replies[0], "Olá Maria!")
		assert.Contains(t, res.Replies[0], "1) Agendar Consulta")
		assert.Contains(t, res.Replies[0], "9) Finalizar Atendimento")
		assert.Nil(t, res.FollowUpMenu)
	}
}

func TestMenuUsesFallbackNameWithoutProfile(t *testing.T) {
	e, _ := testEngine(t)

	res, err := e.Handle(context.Background(), Inbound{ContactID: testContact, Text: "oi"})
	require.NoError(t, err)
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0], "Olá Usuário!")
}

func TestScheduleAppointmentFullFlow(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	res := handle(t, e, "1")
	assert.Equal(t, []string{msgAskPatientName}, res.Replies)

	res = handle(t, e, "joão silva")
	assert.Equal(t, []string{msgAskDoctor}, res.Replies)

	res = handle(t, e, "dra. ana")
	assert.Equal(t, []string{msgAskTime}, res.Replies)

	res = handle(t, e, "14h")
	assert.Equal(t, []string{msgAskDay}, res.Replies)

	res = handle(t, e, "25/03")
	require.Len(t, res.Replies, 1)
	confirmation := res.Replies[0]
	assert.Contains(t, confirmation, "Consulta agendada:")
	assert.Contains(t, confirmation, "Paciente: João Silva")
	assert.Contains(t, confirmation, "Médico: Dra. Ana")
	assert.Contains(t, confirmation, "Horário: 14h")
	assert.Contains(t, confirmation, "Dia: 25/03")

	// Terminal step schedules the re-menu greeting the scheduled patient.
	require.NotNil(t, res.FollowUpMenu)
	assert.Equal(t, "João", res.FollowUpMenu.Name)
	assert.Equal(t, 2*time.Second, res.FollowUpMenu.After)

	// Session is gone: the next plain message gets the menu, not a prompt.
	sess, err := store.Get(ctx, testContact)
	require.NoError(t, err)
	assert.Nil(t, sess)

	res = handle(t, e, "obrigado")
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0], "Opções:")
}

func TestScheduleFollowUpFlowGreetsProfileName(t *testing.T) {
	e, _ := testEngine(t)

	handle(t, e, "2")
	handle(t, e, "carlos lima")
	handle(t, e, "dr. pedro")
	handle(t, e, "9h")
	res := handle(t, e, "30/03")

	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0], "Retorno agendado:")
	assert.Contains(t, res.Replies[0], "Paciente: Carlos Lima")

	require.NotNil(t, res.FollowUpMenu)
	assert.Equal(t, "Maria", res.FollowUpMenu.Name)
}

func TestStepsAdvanceRegardlessOfContent(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	handle(t, e, "1")
	for i, text := range []string{"???", "!!!", "qualquer coisa"} {
		handle(t, e, text)
		sess, err := store.Get(ctx, testContact)
		require.NoError(t, err)
		require.NotNil(t, sess)
		assert.Equal(t, session.Step(int(session.StepPatientName)+i+1), sess.Step, "step after answer %d", i+1)
	}
}

func TestPriceLookupFlow(t *testing.T) {
	e, store := testEngine(t)

	res := handle(t, e, "4")
	assert.Equal(t, []string{msgAskPriceQuery}, res.Replies)

	res = handle(t, e, "ULTRASSOM")
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0], "Ultrassom Abdominal: R$ 150")
	require.NotNil(t, res.FollowUpMenu)
	assert.Equal(t, "Maria", res.FollowUpMenu.Name)

	sess, err := store.Get(context.Background(), testContact)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestPriceLookupNotFound(t *testing.T) {
	e, _ := testEngine(t)

	handle(t, e, "4")
	res := handle(t, e, "tomografia")
	assert.Equal(t, []string{msgPriceNotFound}, res.Replies)
}

func TestProcedureLookupNotOffered(t *testing.T) {
	e, _ := testEngine(t)

	handle(t, e, "6")
	res := handle(t, e, "tomografia")
	require.Len(t, res.Replies, 1)
	assert.Equal(t, "Desculpe, o procedimento *Tomografia* não é realizado na clínica.", res.Replies[0])
}

func TestProcedureLookupFound(t *testing.T) {
	e, _ := testEngine(t)

	handle(t, e, "6")
	res := handle(t, e, "endoscopia")
	require.Len(t, res.Replies, 1)
	assert.Contains(t, res.Replies[0], "Endoscopia Digestiva: R$ 350")
}

func TestOnCallDoctorImmediate(t *testing.T) {
	e, store := testEngine(t)

	res := handle(t, e, "5")
	assert.Equal(t, []string{"O médico de plantão agora é o Dr. Silva."}, res.Replies)

	// No session is created for the immediate lookup.
	sess, err := store.Get(context.Background(), testContact)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestOnCallDoctorNobodyOnDuty(t *testing.T) {
	e, _ := testEngine(t, func(cfg *EngineConfig) {
		cfg.Now = func() time.Time { return time.Date(2024, 3, 25, 12, 0, 0, 0, time.UTC) }
	})

	res := handle(t, e, "5")
	assert.Equal(t, []string{msgNoOneOnDuty}, res.Replies)
}

func TestEscalationFiresAlert(t *testing.T) {
	e, _ := testEngine(t)

	res := handle(t, e, "3")
	assert.Equal(t, []string{msgEscalationAck}, res.Replies)
	require.NotNil(t, res.Alert)
	assert.Equal(t, "Alerta", res.Alert.Title)
	assert.True(t, res.Alert.Sound)
	assert.True(t, res.Alert.Wait)
}

func TestStaticInformationActions(t *testing.T) {
	e, _ := testEngine(t)

	res := handle(t, e, "7")
	assert.Equal(t, []string{"Aqui estão os dias disponíveis para endoscopia: 07/03, 08/03."}, res.Replies)

	res = handle(t, e, "8")
	assert.Equal(t, []string{msgExamPickup}, res.Replies)
}

func TestFinishSessionDeletesMidFlow(t *testing.T) {
	e, store := testEngine(t)
	ctx := context.Background()

	handle(t, e, "1")
	handle(t, e, "joão silva")

	sess, err := store.Get(ctx, testContact)
	require.NoError(t, err)
	require.NotNil(t, sess)

	// The finish key is not swallowed as the doctor answer; it closes the
	// conversation outright.
	res := handle(t, e, "9")
	assert.Equal(t, []string{msgSessionClosed}, res.Replies)

	sess, err = store.Get(ctx, testContact)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestReducedMenuHasNoFollowUp(t *testing.T) {
	e, store := testEngine(t, func(cfg *EngineConfig) {
		cfg.Menu = ReducedMenu()
	})

	// Key 2 escalates instead of starting the follow-up flow.
	res := handle(t, e, "2")
	assert.Equal(t, []string{msgEscalationAck}, res.Replies)
	require.NotNil(t, res.Alert)

	sess, err := store.Get(context.Background(), testContact)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

type failingStore struct {
	getErr error
	putErr error
}

func (f *failingStore) Get(context.Context, string) (*session.Session, error) {
	return nil, f.getErr
}
func (f *failingStore) Put(context.Context, string, *session.Session) error { return f.putErr }
func (f *failingStore) Delete(context.Context, string) error                { return nil }

func TestStoreFailureSurfacesAsError(t *testing.T) {
	e, _ := testEngine(t, func(cfg *EngineConfig) {
		cfg.Sessions = &failingStore{getErr: errors.New("redis down")}
	})

	_, err := e.Handle(context.Background(), Inbound{ContactID: testContact, Text: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load session")
}

func TestStartFlowPutFailure(t *testing.T) {
	e, _ := testEngine(t, func(cfg *EngineConfig) {
		cfg.Sessions = &failingStore{putErr: errors.New("redis down")}
	})

	_, err := e.Handle(context.Background(), Inbound{ContactID: testContact, Text: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start flow")
}
