// Package gateway exposes the clinic workflows as MCP tools.
//
// The gateway owns tool registration and the text the tools answer with.
// Workflows return plain data; turning it into prose happens here.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/entrhq/atlas-bridge/pkg/logging"
	"github.com/entrhq/atlas-bridge/pkg/types"
)

// ServerName is the implementation name announced to MCP clients.
const ServerName = "atlas-bridge"

// Workflows is what the tools call into. *workflow.Runner implements it.
type Workflows interface {
	SearchPatients(ctx context.Context, name string, detailed bool) ([]types.PatientRecord, error)
	CreateTask(ctx context.Context, req types.TaskCreationRequest) types.TaskResult
}

// HelloInput is the argument of hello_world.
type HelloInput struct {
	Name string `json:"name,omitempty" jsonschema:"Name to greet"`
}

// SearchInput is the argument of search_patient_v2.
type SearchInput struct {
	PatientName string `json:"patient_name" jsonschema:"Name of the patient to search for (e.g. 'Abigal', 'John', 'Smith')"`
	Detailed    bool   `json:"detailed,omitempty" jsonschema:"Whether to return detailed patient information"`
}

// CreateTaskInput is the argument of create_new_task.
type CreateTaskInput struct {
	TaskType    string `json:"task_type" jsonschema:"Type of task to create: billing, clinical, front_desk, practice, management or support"`
	TaskName    string `json:"task_name" jsonschema:"Name/title of the task"`
	Description string `json:"description,omitempty" jsonschema:"Optional description for the task"`
}

// Gateway dispatches tool calls to the workflows one at a time.
type Gateway struct {
	mu        sync.Mutex
	workflows Workflows
	version   string
	logger    *logging.Logger
}

// New creates a gateway over workflows.
func New(workflows Workflows, version string, logger *logging.Logger) *Gateway {
	return &Gateway{
		workflows: workflows,
		version:   version,
		logger:    logger,
	}
}

// Server builds an MCP server with every tool registered.
func (g *Gateway) Server() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: g.version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "hello_world",
		Description: "A simple hello world function to test the MCP connection",
	}, g.helloWorld)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_patient_v2",
		Description: "Search for patients in the Flight Health Atlas system by name using web automation",
	}, g.searchPatient)

	mcp.AddTool(server, &mcp.Tool{
		Name: "create_new_task",
		Description: `Create a new task in the Flight Health Atlas system using web automation.
task_type must be one of: ` + strings.Join(types.TaskTypeNames(), ", "),
	}, g.createTask)

	return server
}

// Serve runs the MCP server on stdin/stdout until ctx is done or the client
// disconnects.
func (g *Gateway) Serve(ctx context.Context) error {
	return g.Run(ctx, &mcp.StdioTransport{})
}

// Run runs the MCP server over transport.
func (g *Gateway) Run(ctx context.Context, transport mcp.Transport) error {
	g.logger.Infof("MCP server %s %s running", ServerName, g.version)
	if err := g.Server().Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

func (g *Gateway) helloWorld(ctx context.Context, req *mcp.CallToolRequest, in HelloInput) (*mcp.CallToolResult, any, error) {
	return textResult(FormatGreeting(in.Name), false), nil, nil
}

func (g *Gateway) searchPatient(ctx context.Context, req *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(in.PatientName) == "" {
		return textResult("❌ patient_name is required", true), nil, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Infof("starting patient search for: %s", in.PatientName)
	patients, err := g.workflows.SearchPatients(ctx, in.PatientName, in.Detailed)
	if err != nil {
		g.logger.Errorf("patient search error: %v", err)
		return textResult(FormatSearchError(in.PatientName, err), true), nil, nil
	}
	return textResult(FormatPatients(in.PatientName, patients), false), nil, nil
}

func (g *Gateway) createTask(ctx context.Context, req *mcp.CallToolRequest, in CreateTaskInput) (*mcp.CallToolResult, any, error) {
	if !types.IsKnownTaskType(in.TaskType) {
		msg := fmt.Sprintf("❌ Invalid task type %q: must be one of %s", in.TaskType, strings.Join(types.TaskTypeNames(), ", "))
		return textResult(msg, true), nil, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Infof("starting task creation: %s (%s)", in.TaskName, in.TaskType)
	res := g.workflows.CreateTask(ctx, types.TaskCreationRequest{
		TaskType:    in.TaskType,
		TaskName:    in.TaskName,
		Description: in.Description,
	})
	return textResult(FormatTaskResult(res), !res.Success), nil, nil
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: isError,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
