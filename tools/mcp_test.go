package tools

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentio/toolgate/ai"
	"github.com/agentio/toolgate/approval"
)

func fakeHost() *ai.MCPHost {
	echo := ai.Tool{
		Name:        "echo",
		Description: "Echo back the input",
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			return ai.TextResult("echo: "+args["text"].(string), false), nil
		},
	}
	boom := ai.Tool{
		Name:        "boom",
		Description: "Always fails",
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			return nil, errors.New("server unreachable")
		},
	}
	return &ai.MCPHost{Clients: map[string]ai.MCPClient{
		"safe":  {Name: "safe", Tools: []ai.Tool{echo}},
		"risky": {Name: "risky", Tools: []ai.Tool{echo, boom}},
	}}
}

func fakeServers() map[string]ai.ServerConfig {
	return map[string]ai.ServerConfig{
		"safe":  {Command: "safe-server"},
		"risky": {Command: "risky-server", RequireApproval: true, RiskLevel: "high"},
	}
}

func TestMCPModuleExpandsServerTools(t *testing.T) {
	m, err := NewMCPModule(fakeHost(), fakeServers(), false)
	require.NoError(t, err)
	assert.Equal(t, "mcp", m.Key())

	handles, err := m.Tools()
	require.NoError(t, err)
	require.Len(t, handles, 3)

	// Deterministic server order, tool order within server preserved.
	assert.Equal(t, "mcp_risky_echo", handles[0].Name)
	assert.Equal(t, "mcp_risky_boom", handles[1].Name)
	assert.Equal(t, "mcp_safe_echo", handles[2].Name)
}

func TestMCPModuleConfigs(t *testing.T) {
	m, err := NewMCPModule(fakeHost(), fakeServers(), false)
	require.NoError(t, err)

	configs := m.Configs()
	require.Len(t, configs, 3)

	safe := configs["mcp_safe_echo"]
	assert.Equal(t, CategoryMCP, safe.Category)
	assert.False(t, safe.RequiresApproval)
	assert.Equal(t, RiskLow, safe.RiskLevel)
	assert.Contains(t, safe.Description, "[MCP:safe]")
	assert.Equal(t, []string{"mcp", "external", "safe"}, safe.Tags)

	risky := configs["mcp_risky_echo"]
	assert.True(t, risky.RequiresApproval)
	assert.Equal(t, RiskHigh, risky.RiskLevel)
}

func TestMCPUngatedToolExecutesDirectly(t *testing.T) {
	m, err := NewMCPModule(fakeHost(), fakeServers(), true)
	require.NoError(t, err)
	m.SetDispatcher(func(description string, action approval.Action) string {
		t.Fatal("ungated tool must not reach the dispatcher")
		return ""
	})

	text := callText(t, findTool(t, m, "mcp_safe_echo"), map[string]interface{}{"text": "hi"})
	assert.Equal(t, "echo: hi", text)
}

func TestMCPGatedToolDefersToDispatcher(t *testing.T) {
	m, err := NewMCPModule(fakeHost(), fakeServers(), true)
	require.NoError(t, err)

	var gotDescription string
	var gotAction approval.Action
	m.SetDispatcher(func(description string, action approval.Action) string {
		gotDescription = description
		gotAction = action
		return "queued"
	})

	text := callText(t, findTool(t, m, "mcp_risky_echo"), map[string]interface{}{"text": "hi"})
	assert.Equal(t, "queued", text)
	assert.Contains(t, gotDescription, "MCP tool echo from risky")
	assert.Contains(t, gotDescription, `"text":"hi"`)

	require.NotNil(t, gotAction)
	result, err := gotAction()
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", result)
}

func TestMCPToolErrorsFoldIntoResult(t *testing.T) {
	m, err := NewMCPModule(fakeHost(), fakeServers(), false)
	require.NoError(t, err)

	// Gated tool, approval off: action runs synchronously and its failure
	// comes back as a string.
	text := callText(t, findTool(t, m, "mcp_risky_boom"), map[string]interface{}{})
	assert.Contains(t, text, "Error:")
	assert.Contains(t, text, "server unreachable")
}

func TestMCPModuleWithoutHost(t *testing.T) {
	m, err := NewMCPModule(nil, nil, false)
	require.NoError(t, err)

	handles, err := m.Tools()
	require.NoError(t, err)
	assert.Empty(t, handles)
	assert.Empty(t, m.Configs())
}
