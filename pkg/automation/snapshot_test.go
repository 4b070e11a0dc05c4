package automation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/atlas-bridge/pkg/automation"
)

const listing = `<html><head><title>Patients</title></head><body>
<table>
  <thead><tr><th>Name</th></tr></thead>
  <tbody>
    <tr><td>JD</td><td>Jane Doe</td><td>ID: 1234</td></tr>
    <tr data-patient="7"><td>JS</td><td>John Smith</td></tr>
  </tbody>
</table>
<div class="patient-row card">Ann Lee</div>
<div class="patient-rows">not a row</div>
</body></html>`

func TestParseSnapshot(t *testing.T) {
	s, err := automation.ParseSnapshot(listing)
	require.NoError(t, err)

	assert.Equal(t, "Patients", s.Title)
	assert.Equal(t, 1, s.Tables)
	assert.Equal(t, 1, s.Bodies)
	assert.Equal(t, 3, s.Rows)
	assert.Contains(t, s.FirstTable, "<table>")
}

func TestSnapshot_RowTexts(t *testing.T) {
	s, err := automation.ParseSnapshot(listing)
	require.NoError(t, err)

	rows := s.RowTexts(automation.MatchAny(
		automation.Descendant("tbody", "tr"),
		automation.WithAttr("tr", "data-patient"),
		automation.WithClass("patient-row"),
	))

	// document order, the data-patient row counted once
	require.Len(t, rows, 3)
	assert.Equal(t, "JDJane DoeID: 1234", rows[0])
	assert.Equal(t, "JSJohn Smith", rows[1])
	assert.Equal(t, "Ann Lee", rows[2])
}

func TestSnapshot_FromPage(t *testing.T) {
	d, page := newDriver()
	page.SetContent(listing)

	s, err := d.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 3, s.Rows)
	assert.Equal(t, 1, page.Count("content"))
}
