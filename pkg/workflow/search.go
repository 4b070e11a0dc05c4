package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/entrhq/atlas-bridge/pkg/automation"
	"github.com/entrhq/atlas-bridge/pkg/types"
)

// Patient listing resources and selectors.
const (
	PatientsPath = "/patients?tab=all"
	SearchInput  = `input[type="search"], input[placeholder*="search"], input[name*="search"], .search-input`
	PatientTable = `table, .patient-list, .patients-table`
)

// patientRows matches "tbody tr, tr[data-patient], .patient-row".
var patientRows = automation.MatchAny(
	automation.Descendant("tbody", "tr"),
	automation.WithAttr("tr", "data-patient"),
	automation.WithClass("patient-row"),
)

// SearchPatients returns the patients in the listing whose row mentions
// name, in page order. No match yields an empty slice and a nil error.
// The listing has no detail view, so detailed only changes logging.
func (r *Runner) SearchPatients(ctx context.Context, name string, detailed bool) ([]types.PatientRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Infof("searching for patient %q (detailed=%t)", name, detailed)

	d, err := r.open(ctx, PatientsPath)
	if err != nil {
		return nil, err
	}

	r.step(ctx, "searching for %q", name)
	typed, err := d.TypeIfPresent(SearchInput, name, r.cfg.Timeouts.SearchInput)
	switch {
	case err != nil:
		r.logger.Warnf("search input unusable, proceeding with table parsing: %v", err)
	case typed:
		if err := automation.Sleep(ctx, r.cfg.Timeouts.SearchSettle); err != nil {
			return nil, err
		}
	default:
		r.logger.Infof("no search input found, proceeding with table parsing")
	}

	r.step(ctx, "reading patient table")
	if err := d.WaitFor(PatientTable, r.cfg.Timeouts.Table); err != nil {
		return nil, fmt.Errorf("patient table did not load: %w", err)
	}

	snap, err := d.Snapshot()
	if err != nil {
		return nil, err
	}
	r.logger.Debugf("page %q at %s: %d tables, %d tbodies, %d rows", snap.Title, d.Page().URL(), snap.Tables, snap.Bodies, snap.Rows)
	r.logger.Tracef("first table: %s", snap.FirstTable)

	rows := snap.RowTexts(patientRows)
	needle := strings.ToLower(name)
	patients := make([]types.PatientRecord, 0)
	for i, row := range rows {
		r.logger.Tracef("row %d: %.100s", i, row)
		if !strings.Contains(strings.ToLower(row), needle) {
			continue
		}
		rec, ok := ExtractPatient(row)
		if !ok {
			r.logger.Debugf("row %d matched %q but yielded no name", i, name)
			continue
		}
		if detailed {
			r.logger.Debugf("extracted patient %+v", rec)
		}
		patients = append(patients, rec)
	}

	r.logger.Infof("found %d matching patients among %d rows", len(patients), len(rows))
	return patients, nil
}
