package dialog

import (
	"fmt"
	"strings"

	"github.com/atendeai/clinicbot/internal/clinicdata"
)

// User-facing texts, kept in Brazilian Portuguese as deployed.
const (
	defaultAddressName = "Usuário"

	msgAskPatientName         = "Por favor, informe o nome completo do paciente."
	msgAskDoctor              = "Qual médico deseja consultar?"
	msgAskTime                = "Qual horário deseja marcar?"
	msgAskDay                 = "Qual dia você deseja que a consulta seja realizada?"
	msgAskFollowUpPatientName = "Por favor, informe o nome completo do paciente para o retorno."
	msgAskFollowUpDoctor      = "Qual médico deseja consultar para o retorno?"
	msgAskFollowUpTime        = "Qual horário deseja marcar para o retorno?"
	msgAskFollowUpDay         = "Qual dia você deseja que o retorno seja realizado?"

	msgAskPriceQuery     = "Digite o nome do procedimento que deseja consultar o preço."
	msgAskProcedureQuery = "Digite o nome do procedimento que deseja verificar se é realizado na clínica."
	msgPriceNotFound     = "Desculpe, não encontrei nenhum procedimento com esse nome."

	msgNoOneOnDuty = "Não há médicos de plantão no momento."

	msgEscalationAck = "Se precisar de algo mais, estou à disposição."
	msgExamPickup    = "Para pegar seu exame, é necessário apresentar o papel entregue após a realização do exame. A retirada pode ser feita a partir das 9 horas do dia indicado no papel."
	msgSessionClosed = "Atendimento encerrado. Para retornar, basta enviar uma mensagem."
	msgApology       = "Desculpe, ocorreu um erro ao processar sua solicitação."

	alertTitle   = "Alerta"
	alertMessage = "Uma pessoa humana precisa responder!"
)

func msgOnDuty(doctor string) string {
	return fmt.Sprintf("O médico de plantão agora é o %s.", doctor)
}

func msgEndoscopyDays(days []string) string {
	return fmt.Sprintf("Aqui estão os dias disponíveis para endoscopia: %s.", strings.Join(days, ", "))
}

func msgProcedureNotOffered(query string) string {
	return fmt.Sprintf("Desculpe, o procedimento *%s* não é realizado na clínica.", query)
}

func msgProcedureList(records []clinicdata.ProcedureRecord) string {
	var b strings.Builder
	b.WriteString("Aqui estão os procedimentos que encontrei:\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "- %s: R$ %s\n", rec.Name, rec.Price)
	}
	return b.String()
}

func msgScheduleConfirmation(header string, patient, doctor, timeOfDay, day string) string {
	return fmt.Sprintf(`%s
Paciente: %s
Médico: %s
Horário: %s
Dia: %s
Se precisar de algo mais, estou à disposição.`, header, patient, doctor, timeOfDay, day)
}
