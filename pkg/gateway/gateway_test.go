package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/atlas-bridge/pkg/logging"
	"github.com/entrhq/atlas-bridge/pkg/types"
)

type fakeWorkflows struct {
	mu       sync.Mutex
	patients []types.PatientRecord
	err      error
	result   types.TaskResult
	searches []string
	tasks    []types.TaskCreationRequest
}

func (f *fakeWorkflows) SearchPatients(ctx context.Context, name string, detailed bool) ([]types.PatientRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, name)
	return f.patients, f.err
}

func (f *fakeWorkflows) CreateTask(ctx context.Context, req types.TaskCreationRequest) types.TaskResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, req)
	return f.result
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestFormatGreeting(t *testing.T) {
	assert.Equal(t, "Hello, World! Atlas bridge MCP server is working correctly.", FormatGreeting(""))
	assert.Equal(t, "Hello, Ada! Atlas bridge MCP server is working correctly.", FormatGreeting("Ada"))
}

func TestFormatPatients(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		out := FormatPatients("Nobody", nil)
		assert.Equal(t, `🔍 No patients found matching "Nobody" in the Flight Health Atlas system.`, out)
	})

	t.Run("only present fields", func(t *testing.T) {
		out := FormatPatients("doe", []types.PatientRecord{
			{Name: "Jane Doe", ID: "123", DOB: "05/12/1990", Gender: "female", Phone: "(555) 123-4567"},
			{Name: "Janet Doe", ID: "8", PCP: "Dr. Who"},
		})

		want := "🏥 Found 2 patient(s) matching \"doe\":\n\n" +
			"**Patient 1:**\n" +
			"• Name: Jane Doe\n" +
			"• ID: 123\n" +
			"• Date of Birth: 05/12/1990\n" +
			"• Gender: female\n" +
			"• Phone: (555) 123-4567\n" +
			"\n" +
			"**Patient 2:**\n" +
			"• Name: Janet Doe\n" +
			"• ID: 8\n" +
			"• PCP: Dr. Who\n" +
			"\n"
		assert.Equal(t, want, out)
	})
}

func TestFormatTaskResult(t *testing.T) {
	assert.Equal(t, "✅ done", FormatTaskResult(types.TaskResult{Success: true, Message: "done"}))
	assert.Equal(t, "❌ nope", FormatTaskResult(types.TaskResult{Message: "nope"}))
}

func TestSearchPatient(t *testing.T) {
	wf := &fakeWorkflows{patients: []types.PatientRecord{{Name: "Jane Doe", ID: "123"}}}
	g := New(wf, "test", logging.Discard())

	res, _, err := g.searchPatient(context.Background(), nil, SearchInput{PatientName: "Jane"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), `Found 1 patient(s) matching "Jane"`)
	assert.Equal(t, []string{"Jane"}, wf.searches)
}

func TestSearchPatient_Error(t *testing.T) {
	wf := &fakeWorkflows{err: errors.New("Login failed: Invalid credentials")}
	g := New(wf, "test", logging.Discard())

	res, _, err := g.searchPatient(context.Background(), nil, SearchInput{PatientName: "Jane"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, `❌ Error searching for patient "Jane": Login failed: Invalid credentials`, text(t, res))
}

func TestSearchPatient_BlankName(t *testing.T) {
	wf := &fakeWorkflows{}
	g := New(wf, "test", logging.Discard())

	res, _, err := g.searchPatient(context.Background(), nil, SearchInput{PatientName: "  "})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Empty(t, wf.searches)
}

func TestCreateTask(t *testing.T) {
	wf := &fakeWorkflows{result: types.TaskResult{Success: true, Message: `Task "Refund" created successfully`}}
	g := New(wf, "test", logging.Discard())

	res, _, err := g.createTask(context.Background(), nil, CreateTaskInput{TaskType: "billing", TaskName: "Refund", Description: "dup charge"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, `✅ Task "Refund" created successfully`, text(t, res))
	require.Len(t, wf.tasks, 1)
	assert.Equal(t, types.TaskCreationRequest{TaskType: "billing", TaskName: "Refund", Description: "dup charge"}, wf.tasks[0])
}

func TestCreateTask_Failure(t *testing.T) {
	wf := &fakeWorkflows{result: types.TaskResult{Message: `Failed to create task "Refund": boom`}}
	g := New(wf, "test", logging.Discard())

	res, _, err := g.createTask(context.Background(), nil, CreateTaskInput{TaskType: "support", TaskName: "Refund"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, `❌ Failed to create task "Refund": boom`, text(t, res))
}

func TestCreateTask_RejectsUnknownType(t *testing.T) {
	wf := &fakeWorkflows{}
	g := New(wf, "test", logging.Discard())

	res, _, err := g.createTask(context.Background(), nil, CreateTaskInput{TaskType: "front desk", TaskName: "Call"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "must be one of billing, clinical, front_desk")
	assert.Empty(t, wf.tasks)
}

func TestServer_OverTransport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wf := &fakeWorkflows{result: types.TaskResult{Success: true, Message: "ok"}}
	g := New(wf, "test", logging.Discard())

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := g.Server().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"hello_world", "search_patient_v2", "create_new_task"}, names)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "hello_world", Arguments: map[string]any{"name": "Ada"}})
	require.NoError(t, err)
	assert.Equal(t, FormatGreeting("Ada"), text(t, res))

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "create_new_task",
		Arguments: map[string]any{"task_type": "clinical", "task_name": "Review chart"},
	})
	require.NoError(t, err)
	assert.Equal(t, "✅ ok", text(t, res))
	require.Len(t, wf.tasks, 1)
	assert.Equal(t, "Review chart", wf.tasks[0].TaskName)
}
