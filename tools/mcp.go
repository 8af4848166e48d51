package tools

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/agentio/toolgate/ai"
)

// MCPModule exposes tools discovered on connected MCP servers. Discovery
// happens once when the module is constructed; the tool list and configs are
// fixed snapshots until the registry is rebuilt.
type MCPModule struct {
	approver

	tools   []ai.Tool
	configs map[string]Config
}

// NewMCPModule expands every client's discovered tools into namespaced entries
// named mcp_<server>_<tool>. Approval and risk level are taken from the
// server's config and applied to all of its tools.
func NewMCPModule(host *ai.MCPHost, servers map[string]ai.ServerConfig, enableApproval bool) (*MCPModule, error) {
	m := &MCPModule{
		approver: approver{enableApproval: enableApproval},
		configs:  make(map[string]Config),
	}
	if host == nil {
		return m, nil
	}

	// Deterministic order across rebuilds.
	names := make([]string, 0, len(host.Clients))
	for name := range host.Clients {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, serverName := range names {
		client := host.Clients[serverName]
		server := servers[serverName]

		risk := RiskLevel(server.RiskLevel)
		if risk == "" {
			risk = RiskLow
		}

		for _, tool := range client.Tools {
			qualified := fmt.Sprintf("mcp_%s_%s", serverName, tool.Name)
			m.tools = append(m.tools, m.wrapTool(qualified, serverName, tool, server.RequireApproval))
			m.configs[qualified] = Config{
				Name:             qualified,
				Category:         CategoryMCP,
				Description:      fmt.Sprintf("[MCP:%s] %s", serverName, tool.Description),
				RequiresApproval: server.RequireApproval,
				RiskLevel:        risk,
				Enabled:          true,
				ExampleUsage:     fmt.Sprintf("Use the %s tool from the %s server", tool.Name, serverName),
				Parameters:       map[string]string{},
				Tags:             []string{"mcp", "external", serverName},
			}
		}
	}
	return m, nil
}

func (m *MCPModule) Key() string { return "mcp" }

func (m *MCPModule) Tools() ([]ai.Tool, error) {
	return m.tools, nil
}

func (m *MCPModule) Configs() map[string]Config {
	return m.configs
}

// wrapTool renames the server tool and, when the server is gated, routes every
// invocation through the approval dispatcher. The action closes over the
// original Execute so the remote call happens only on approval.
func (m *MCPModule) wrapTool(qualified, serverName string, tool ai.Tool, gated bool) ai.Tool {
	execute := tool.Execute

	wrapped := ai.Tool{
		Name:            qualified,
		Description:     tool.Description,
		InputSchema:     tool.InputSchema,
		RequireApproval: gated,
	}
	wrapped.Execute = func(args map[string]interface{}) (*ai.ToolResult, error) {
		run := func() (string, error) {
			result, err := execute(args)
			if err != nil {
				return "", err
			}
			return result.Text(), nil
		}

		if !gated {
			text, err := run()
			if err != nil {
				return ai.TextResult(fmt.Sprintf("Error calling MCP tool %s: %v", tool.Name, err), true), nil
			}
			return ai.TextResult(text, false), nil
		}

		description := fmt.Sprintf("MCP tool %s from %s: %s", tool.Name, serverName, compactArgs(args))
		return ai.TextResult(m.requestApproval(description, run), false), nil
	}
	return wrapped
}

// compactArgs renders call arguments for the approval description.
func compactArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return "(no arguments)"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	if len(data) > 200 {
		data = append(data[:200], []byte("...")...)
	}
	return string(data)
}
