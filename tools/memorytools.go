package tools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentio/toolgate/ai"
	"github.com/agentio/toolgate/memory"
)

// MemoryModule wraps the session memory manager as agent-invocable tools.
// It is pass-through: no invariants beyond what the manager provides.
type MemoryModule struct {
	approver

	manager *memory.Manager
}

func NewMemoryModule(manager *memory.Manager, enableApproval bool) (*MemoryModule, error) {
	if manager == nil {
		return nil, errors.New("memory module requires a memory manager")
	}
	return &MemoryModule{
		approver: approver{enableApproval: enableApproval},
		manager:  manager,
	}, nil
}

func (m *MemoryModule) Key() string { return "memory" }

func (m *MemoryModule) Tools() ([]ai.Tool, error) {
	return []ai.Tool{
		m.memoryInfoTool(),
		m.memoryStatsTool(),
		m.allSessionsTool(),
		m.clearSessionTool(),
		m.exportSessionTool(),
		m.importSessionTool(),
		m.cleanupSessionsTool(),
		m.memorySummaryTool(),
		m.trimSessionTool(),
	}, nil
}

func (m *MemoryModule) Configs() map[string]Config {
	return map[string]Config{
		"memory_info": {
			Name:         "memory_info",
			Category:     CategoryMemory,
			Description:  "Get basic information about conversation memory",
			RiskLevel:    RiskLow,
			Enabled:      true,
			ExampleUsage: "How many messages do we have?",
			Parameters:   map[string]string{"session_id": "Session ID (default: 'default')"},
			Tags:         []string{"memory", "statistics", "information"},
		},
		"get_memory_stats": {
			Name:         "get_memory_stats",
			Category:     CategoryMemory,
			Description:  "Get detailed memory statistics for a session",
			RiskLevel:    RiskLow,
			Enabled:      true,
			ExampleUsage: "Show detailed memory stats",
			Parameters:   map[string]string{"session_id": "Session ID (default: 'default')"},
			Tags:         []string{"memory", "statistics", "detailed", "analysis"},
		},
		"get_all_sessions": {
			Name:         "get_all_sessions",
			Category:     CategoryMemory,
			Description:  "Get a list of all available conversation sessions",
			RiskLevel:    RiskLow,
			Enabled:      true,
			ExampleUsage: "List all conversation sessions",
			Parameters:   map[string]string{},
			Tags:         []string{"memory", "sessions", "list", "management"},
		},
		"clear_session": {
			Name:             "clear_session",
			Category:         CategoryMemory,
			Description:      "Clear all conversation history for a specific session",
			RequiresApproval: true,
			RiskLevel:        RiskMedium,
			Enabled:          true,
			ExampleUsage:     "Clear conversation history",
			Parameters:       map[string]string{"session_id": "Session ID to clear"},
			Tags:             []string{"memory", "clear", "delete", "cleanup"},
		},
		"export_session": {
			Name:         "export_session",
			Category:     CategoryMemory,
			Description:  "Export conversation data from a session",
			RiskLevel:    RiskLow,
			Enabled:      true,
			ExampleUsage: "Export my conversation history",
			Parameters:   map[string]string{"session_id": "Session ID to export"},
			Tags:         []string{"memory", "export", "backup", "data"},
		},
		"import_session": {
			Name:             "import_session",
			Category:         CategoryMemory,
			Description:      "Import conversation data into a session",
			RequiresApproval: true,
			RiskLevel:        RiskHigh,
			Enabled:          true,
			ExampleUsage:     "Import conversation data",
			Parameters: map[string]string{
				"session_id": "Session ID to import into",
				"data":       "JSON data to import",
			},
			Tags: []string{"memory", "import", "restore", "data"},
		},
		"cleanup_old_sessions": {
			Name:             "cleanup_old_sessions",
			Category:         CategoryMemory,
			Description:      "Clean up conversation sessions older than specified days",
			RequiresApproval: true,
			RiskLevel:        RiskMedium,
			Enabled:          true,
			ExampleUsage:     "Clean up old conversations",
			Parameters:       map[string]string{"days_old": "Age threshold in days (default: 30)"},
			Tags:             []string{"memory", "cleanup", "maintenance", "optimization"},
		},
		"get_memory_summary": {
			Name:         "get_memory_summary",
			Category:     CategoryMemory,
			Description:  "Get overall memory usage summary across all sessions",
			RiskLevel:    RiskLow,
			Enabled:      true,
			ExampleUsage: "Show memory usage summary",
			Parameters:   map[string]string{},
			Tags:         []string{"memory", "summary", "overview", "statistics"},
		},
		"trim_session_messages": {
			Name:             "trim_session_messages",
			Category:         CategoryMemory,
			Description:      "Trim a session to keep only the most recent messages",
			RequiresApproval: true,
			RiskLevel:        RiskMedium,
			Enabled:          true,
			ExampleUsage:     "Keep only recent messages",
			Parameters: map[string]string{
				"session_id":   "Session ID to trim",
				"max_messages": "Maximum messages to keep (default: 100)",
			},
			Tags: []string{"memory", "trim", "optimization", "cleanup"},
		},
	}
}

func sessionIDArg(args map[string]interface{}) string {
	if id := strings.TrimSpace(stringArg(args, "session_id")); id != "" {
		return id
	}
	return "default"
}

func sessionSchema(extra map[string]interface{}, required ...string) map[string]interface{} {
	props := map[string]interface{}{
		"session_id": map[string]interface{}{
			"type":        "string",
			"description": "Session ID (default: 'default')",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	schema := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func (m *MemoryModule) memoryInfoTool() ai.Tool {
	return ai.Tool{
		Name:        "memory_info",
		Description: "Get basic information about conversation memory.",
		InputSchema: sessionSchema(nil),
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			stats := m.manager.Stats(sessionIDArg(args))
			text := fmt.Sprintf("Memory contains %d messages, %d tokens, %d bytes",
				stats.MessageCount, stats.TotalTokens, stats.MemorySizeBytes)
			return ai.TextResult(text, false), nil
		},
	}
}

func (m *MemoryModule) memoryStatsTool() ai.Tool {
	return ai.Tool{
		Name:        "get_memory_stats",
		Description: "Get detailed memory statistics for a specific session.",
		InputSchema: sessionSchema(nil),
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			sessionID := sessionIDArg(args)
			stats := m.manager.Stats(sessionID)

			var b strings.Builder
			fmt.Fprintf(&b, "Memory Statistics for Session '%s':\n", sessionID)
			fmt.Fprintf(&b, "- Messages: %d\n", stats.MessageCount)
			fmt.Fprintf(&b, "- Tokens: %d\n", stats.TotalTokens)
			fmt.Fprintf(&b, "- Memory Size: %s\n", formatBytes(stats.MemorySizeBytes))
			if !stats.FirstMessageTime.IsZero() {
				fmt.Fprintf(&b, "- First Message: %s\n", stats.FirstMessageTime.Format("2006-01-02 15:04:05"))
				fmt.Fprintf(&b, "- Last Message: %s\n", stats.LastMessageTime.Format("2006-01-02 15:04:05"))
			}
			if stats.MessageCount > 0 {
				fmt.Fprintf(&b, "- Average tokens per message: %.1f\n",
					float64(stats.TotalTokens)/float64(stats.MessageCount))
				fmt.Fprintf(&b, "- Average bytes per message: %.0f\n",
					float64(stats.MemorySizeBytes)/float64(stats.MessageCount))
			}
			return ai.TextResult(strings.TrimRight(b.String(), "\n"), false), nil
		},
	}
}

func formatBytes(n int) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%d bytes (%.2f MB)", n, float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%d bytes (%.2f KB)", n, float64(n)/1024)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

func (m *MemoryModule) allSessionsTool() ai.Tool {
	return ai.Tool{
		Name:        "get_all_sessions",
		Description: "Get a list of all available conversation sessions.",
		InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			sessions := m.manager.Sessions()
			if len(sessions) == 0 {
				return ai.TextResult("No conversation sessions found.", false), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Available Sessions (%d total):\n\n", len(sessions))
			for i, sessionID := range sessions {
				stats := m.manager.Stats(sessionID)
				fmt.Fprintf(&b, "%d. '%s'\n", i+1, sessionID)
				fmt.Fprintf(&b, "   %d messages, %d bytes\n", stats.MessageCount, stats.MemorySizeBytes)
				if !stats.LastMessageTime.IsZero() {
					fmt.Fprintf(&b, "   Last active: %s\n", stats.LastMessageTime.Format("2006-01-02 15:04:05"))
				}
			}
			return ai.TextResult(strings.TrimRight(b.String(), "\n"), false), nil
		},
	}
}

func (m *MemoryModule) clearSessionTool() ai.Tool {
	return ai.Tool{
		Name:            "clear_session",
		Description:     "Clear all conversation history for a specific session.",
		RequireApproval: true,
		InputSchema:     sessionSchema(nil, "session_id"),
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			sessionID := sessionIDArg(args)

			result := m.requestApproval("Clear session: "+sessionID, func() (string, error) {
				if m.manager.ClearSession(sessionID) {
					return fmt.Sprintf("Successfully cleared session '%s'", sessionID), nil
				}
				return fmt.Sprintf("Failed to clear session '%s': session not found", sessionID), nil
			})
			return ai.TextResult(result, false), nil
		},
	}
}

func (m *MemoryModule) exportSessionTool() ai.Tool {
	return ai.Tool{
		Name:        "export_session",
		Description: "Export conversation data from a session in JSON format.",
		InputSchema: sessionSchema(nil, "session_id"),
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			sessionID := sessionIDArg(args)

			data, err := m.manager.ExportSession(sessionID)
			if err != nil {
				return ai.TextResult(fmt.Sprintf("Error exporting session: %v", err), true), nil
			}
			stats := m.manager.Stats(sessionID)

			preview := data
			if len(preview) > 300 {
				preview = preview[:300] + "..."
			}
			text := fmt.Sprintf("Exported session '%s':\n- Messages: %d\n- Data size: %d characters\n\nExport data preview:\n%s",
				sessionID, stats.MessageCount, len(data), preview)
			return ai.TextResult(text, false), nil
		},
	}
}

func (m *MemoryModule) importSessionTool() ai.Tool {
	return ai.Tool{
		Name:            "import_session",
		Description:     "Import conversation data into a session from JSON format.",
		RequireApproval: true,
		InputSchema: sessionSchema(map[string]interface{}{
			"data": map[string]interface{}{
				"type":        "string",
				"description": "JSON data to import",
			},
		}, "session_id", "data"),
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			sessionID := sessionIDArg(args)
			data := stringArg(args, "data")

			result := m.requestApproval("Import data into session: "+sessionID, func() (string, error) {
				if err := m.manager.ImportSession(sessionID, data); err != nil {
					return fmt.Sprintf("Failed to import data into session '%s': %v", sessionID, err), nil
				}
				stats := m.manager.Stats(sessionID)
				return fmt.Sprintf("Successfully imported data into session '%s'\n- Messages imported: %d\n- Memory size: %d bytes",
					sessionID, stats.MessageCount, stats.MemorySizeBytes), nil
			})
			return ai.TextResult(result, false), nil
		},
	}
}

func (m *MemoryModule) cleanupSessionsTool() ai.Tool {
	return ai.Tool{
		Name:            "cleanup_old_sessions",
		Description:     "Clean up conversation sessions older than specified number of days.",
		RequireApproval: true,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"days_old": map[string]interface{}{
					"type":        "integer",
					"description": "Age threshold in days (default: 30)",
				},
			},
		},
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			daysOld := intArg(args, "days_old", 30)

			result := m.requestApproval(fmt.Sprintf("Cleanup sessions older than %d days", daysOld), func() (string, error) {
				cleaned := m.manager.CleanupOldSessions(daysOld)
				if cleaned > 0 {
					return fmt.Sprintf("Cleaned up %d sessions older than %d days", cleaned, daysOld), nil
				}
				return fmt.Sprintf("No sessions found older than %d days - all sessions are recent", daysOld), nil
			})
			return ai.TextResult(result, false), nil
		},
	}
}

func (m *MemoryModule) memorySummaryTool() ai.Tool {
	return ai.Tool{
		Name:        "get_memory_summary",
		Description: "Get an overall summary of memory usage across all sessions.",
		InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			summary := m.manager.Summary()

			var b strings.Builder
			b.WriteString("Overall Memory Summary:\n\n")
			fmt.Fprintf(&b, "Sessions: %d\n", summary.TotalSessions)
			fmt.Fprintf(&b, "Total Messages: %d\n", summary.TotalMessages)
			fmt.Fprintf(&b, "Total Memory: %s\n", formatBytes(summary.TotalMemoryBytes))
			fmt.Fprintf(&b, "Average Messages/Session: %.1f\n", summary.AverageMessagesPerSession)

			if summary.TotalSessions > 0 {
				b.WriteString("\nSession Details:\n")
				for i, s := range summary.Sessions {
					if i >= 10 {
						fmt.Fprintf(&b, "... and %d more sessions\n", summary.TotalSessions-10)
						break
					}
					fmt.Fprintf(&b, "- '%s': %d messages (%s)\n", s.SessionID, s.MessageCount, formatBytes(s.MemorySizeBytes))
				}
			}
			return ai.TextResult(strings.TrimRight(b.String(), "\n"), false), nil
		},
	}
}

func (m *MemoryModule) trimSessionTool() ai.Tool {
	return ai.Tool{
		Name:            "trim_session_messages",
		Description:     "Trim a session to keep only the most recent messages.",
		RequireApproval: true,
		InputSchema: sessionSchema(map[string]interface{}{
			"max_messages": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum messages to keep (default: 100)",
			},
		}, "session_id"),
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			sessionID := sessionIDArg(args)
			maxMessages := intArg(args, "max_messages", 100)

			result := m.requestApproval(fmt.Sprintf("Trim session '%s' to %d messages", sessionID, maxMessages), func() (string, error) {
				removed := m.manager.TrimSession(sessionID, maxMessages)
				if removed > 0 {
					return fmt.Sprintf("Trimmed %d old messages from session '%s', keeping %d most recent messages",
						removed, sessionID, maxMessages), nil
				}
				stats := m.manager.Stats(sessionID)
				return fmt.Sprintf("Session '%s' already has %d messages or fewer - no trimming needed",
					sessionID, stats.MessageCount), nil
			})
			return ai.TextResult(result, false), nil
		},
	}
}
