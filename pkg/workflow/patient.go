package workflow

import (
	"regexp"
	"strings"

	"github.com/entrhq/atlas-bridge/pkg/types"
)

// Row text patterns of the patient listing. Cells are concatenated without
// separators, so each pattern anchors on its neighbours: an avatar prefix of
// two characters, an "id:" label, a DD/MM/YYYY date glued to the gender.
var (
	nameField   = regexp.MustCompile(`^.{2}([a-z\s]+?)id:`)
	idWithDate  = regexp.MustCompile(`id:\s*(\d+?)\d?(\d{2}/\d{2}/\d{4})`)
	idField     = regexp.MustCompile(`id:\s*(\d+)`)
	dobField    = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`)
	genderField = regexp.MustCompile(`\d{4}(male|female)`)
	phoneField  = regexp.MustCompile(`\((\d{3})\)\s*(\d{3})-(\d{4})`)
)

// ExtractPatient recovers a patient from the text of one listing row.
// It reports false when no name can be found.
func ExtractPatient(rowText string) (types.PatientRecord, bool) {
	text := strings.ToLower(rowText)
	var rec types.PatientRecord

	if m := nameField.FindStringSubmatch(text); m != nil {
		rec.Name = titleCase(strings.TrimSpace(m[1]))
	}
	if rec.Name == "" {
		return types.PatientRecord{}, false
	}

	// The id cell is followed by a one-digit column before the date.
	if m := idWithDate.FindStringSubmatch(text); m != nil {
		rec.ID = m[1]
	} else if m := idField.FindStringSubmatch(text); m != nil {
		rec.ID = m[1]
	}
	if m := dobField.FindStringSubmatch(text); m != nil {
		rec.DOB = m[1]
	}
	if m := genderField.FindStringSubmatch(text); m != nil {
		rec.Gender = m[1]
	}
	if m := phoneField.FindStringSubmatch(text); m != nil {
		rec.Phone = "(" + m[1] + ") " + m[2] + "-" + m[3]
	}
	return rec, true
}

func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
