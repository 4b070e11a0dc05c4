package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/atlas-bridge/pkg/types"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func renderPatients(w io.Writer, query string, patients []types.PatientRecord) error {
	if len(patients) == 0 {
		_, err := fmt.Fprintf(w, "No patients found matching %q\n", query)
		return err
	}

	if _, err := fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("%d patient(s) matching %q", len(patients), query))); err != nil {
		return err
	}
	for _, p := range patients {
		if _, err := fmt.Fprintf(w, "\n%s  %s\n", headingStyle.Render(p.Name), labelStyle.Render("#"+p.ID)); err != nil {
			return err
		}
		for _, f := range []struct{ label, value string }{
			{"dob", p.DOB},
			{"gender", p.Gender},
			{"phone", p.Phone},
			{"email", p.Email},
			{"primary insurance", p.PrimaryInsurance},
			{"secondary insurance", p.SecondaryInsurance},
			{"pcp", p.PCP},
			{"last appointment", p.LastAppointment},
		} {
			if f.value == "" {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %s %s\n", labelStyle.Render(f.label+":"), f.value); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderTaskResult(w io.Writer, res types.TaskResult) error {
	if res.Success {
		_, err := fmt.Fprintln(w, okStyle.Render("✓ "+res.Message))
		return err
	}
	_, err := fmt.Fprintln(w, failStyle.Render("✗ "+res.Message))
	return err
}
