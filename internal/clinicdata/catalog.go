// Package clinicdata loads the read-only reference tables the attendant
// consults: the procedure price catalog and the on-call duty roster. Both are
// loaded once at startup and never mutated afterwards.
package clinicdata

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// ProcedureRecord is one row of the procedure catalog. Duplicate names are
// legal; lookups return every matching row.
type ProcedureRecord struct {
	Name  string `csv:"Procedimento"`
	Price string `csv:"Valor"`
}

// LoadCatalog reads the procedure catalog CSV at path. An empty catalog is an
// error: the process must not serve price lookups without reference data.
func LoadCatalog(path string) ([]ProcedureRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("clinicdata: open catalog %s: %w", path, err)
	}
	defer f.Close()

	var records []ProcedureRecord
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("clinicdata: parse catalog %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("clinicdata: catalog %s is empty", path)
	}
	return records, nil
}
