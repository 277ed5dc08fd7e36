package dialog

import "strconv"

// Action enumerates every top-level menu action the engine knows. The menu
// configuration decides which actions are enabled and in what order; dispatch
// is a switch over this closed set.
type Action int

const (
	ActionScheduleAppointment Action = iota
	ActionScheduleFollowUp
	ActionEscalateToHuman
	ActionPriceLookup
	ActionOnCallDoctor
	ActionProcedureLookup
	ActionEndoscopyDays
	ActionExamPickup
	ActionFinishSession
)

// MenuItem is one enabled menu entry. Its key is its 1-based position in the
// menu, so the reduced variant renumbers automatically.
type MenuItem struct {
	Label  string
	Action Action
}

// Menu is the ordered list of enabled actions.
type Menu []MenuItem

// FullMenu returns the nine-option menu, including follow-up scheduling.
func FullMenu() Menu {
	return Menu{
		{Label: "Agendar Consulta", Action: ActionScheduleAppointment},
		{Label: "Marcar Retorno", Action: ActionScheduleFollowUp},
		{Label: "Outras Perguntas", Action: ActionEscalateToHuman},
		{Label: "Consultar Preços", Action: ActionPriceLookup},
		{Label: "Médico de Plantão", Action: ActionOnCallDoctor},
		{Label: "Ver Procedimentos", Action: ActionProcedureLookup},
		{Label: "Dias de Endoscopia", Action: ActionEndoscopyDays},
		{Label: "Pegar Exame", Action: ActionExamPickup},
		{Label: "Finalizar Atendimento", Action: ActionFinishSession},
	}
}

// ReducedMenu returns the eight-option menu without follow-up scheduling.
func ReducedMenu() Menu {
	full := FullMenu()
	reduced := make(Menu, 0, len(full)-1)
	for _, item := range full {
		if item.Action == ActionScheduleFollowUp {
			continue
		}
		reduced = append(reduced, item)
	}
	return reduced
}

// Lookup resolves a menu key. Keys are the exact literal digits "1".."9";
// anything else, including padded or multi-intent text, misses.
func (m Menu) Lookup(key string) (MenuItem, bool) {
	for i, item := range m {
		if key == strconv.Itoa(i+1) {
			return item, true
		}
	}
	return MenuItem{}, false
}
