package gateway

import (
	"fmt"
	"strings"

	"github.com/entrhq/atlas-bridge/pkg/types"
)

// FormatGreeting answers hello_world.
func FormatGreeting(name string) string {
	if name == "" {
		name = "World"
	}
	return fmt.Sprintf("Hello, %s! Atlas bridge MCP server is working correctly.", name)
}

// FormatPatients renders search results, one block per patient with only
// the fields the listing provided.
func FormatPatients(query string, patients []types.PatientRecord) string {
	if len(patients) == 0 {
		return fmt.Sprintf("🔍 No patients found matching %q in the Flight Health Atlas system.", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏥 Found %d patient(s) matching %q:\n\n", len(patients), query)
	for i, p := range patients {
		fmt.Fprintf(&b, "**Patient %d:**\n", i+1)
		fmt.Fprintf(&b, "• Name: %s\n", p.Name)
		fmt.Fprintf(&b, "• ID: %s\n", p.ID)
		for _, f := range []struct{ label, value string }{
			{"Date of Birth", p.DOB},
			{"Gender", p.Gender},
			{"Phone", p.Phone},
			{"Email", p.Email},
			{"Primary Insurance", p.PrimaryInsurance},
			{"Secondary Insurance", p.SecondaryInsurance},
			{"PCP", p.PCP},
			{"Last Appointment", p.LastAppointment},
		} {
			if f.value != "" {
				fmt.Fprintf(&b, "• %s: %s\n", f.label, f.value)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatSearchError renders a failed search.
func FormatSearchError(query string, err error) string {
	return fmt.Sprintf("❌ Error searching for patient %q: %v", query, err)
}

// FormatTaskResult renders a task creation outcome.
func FormatTaskResult(res types.TaskResult) string {
	if res.Success {
		return "✅ " + res.Message
	}
	return "❌ " + res.Message
}
