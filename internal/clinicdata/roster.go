package clinicdata

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
)

// DutyRecord is one row of the on-call roster: a doctor covering a day of the
// week between two whole hours. An end hour of 0 means end of day (24:00),
// not midnight at the start of the day; the resolver applies that rule.
type DutyRecord struct {
	Day       string
	StartHour int
	EndHour   int
	Doctor    string
}

type rosterRow struct {
	Day    string `csv:"Dia da Semana"`
	Window string `csv:"Horário"`
	Doctor string `csv:"Médico"`
}

// LoadRoster reads the on-call roster CSV at path. An empty roster is an
// error, same startup precondition as the catalog.
func LoadRoster(path string) ([]DutyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("clinicdata: open roster %s: %w", path, err)
	}
	defer f.Close()

	var rows []rosterRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("clinicdata: parse roster %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("clinicdata: roster %s is empty", path)
	}

	records := make([]DutyRecord, 0, len(rows))
	for i, row := range rows {
		start, end, err := ParseWindow(row.Window)
		if err != nil {
			return nil, fmt.Errorf("clinicdata: roster %s row %d: %w", path, i+1, err)
		}
		records = append(records, DutyRecord{
			Day:       strings.TrimSpace(row.Day),
			StartHour: start,
			EndHour:   end,
			Doctor:    strings.TrimSpace(row.Doctor),
		})
	}
	return records, nil
}

// ParseWindow parses a `"<startHour>H-<endHour>H"` duty window, e.g. "7H-19H"
// or "22H-0H".
func ParseWindow(window string) (startHour, endHour int, err error) {
	parts := strings.Split(window, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid duty window %q", window)
	}
	startHour, err = parseHour(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid duty window %q: %w", window, err)
	}
	endHour, err = parseHour(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid duty window %q: %w", window, err)
	}
	return startHour, endHour, nil
}

func parseHour(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.ToUpper(s), "H")
	hour, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse hour %q: %w", s, err)
	}
	if hour < 0 || hour > 24 {
		return 0, fmt.Errorf("hour %d out of range", hour)
	}
	return hour, nil
}
