package tools

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentio/toolgate/approval"
	"github.com/agentio/toolgate/memory"
)

func newTestMemoryModule(t *testing.T) (*MemoryModule, *memory.Manager) {
	t.Helper()
	mgr := memory.NewManager(memory.NewInMemoryStore())
	m, err := NewMemoryModule(mgr, false)
	require.NoError(t, err)
	return m, mgr
}

func seedSession(t *testing.T, mgr *memory.Manager, sessionID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := mgr.AddMessage(sessionID, "user", "hello there")
		require.NoError(t, err)
	}
}

func TestNewMemoryModuleRequiresManager(t *testing.T) {
	_, err := NewMemoryModule(nil, false)
	assert.Error(t, err)
}

func TestMemoryInfo(t *testing.T) {
	m, mgr := newTestMemoryModule(t)
	seedSession(t, mgr, "default", 3)

	text := callText(t, findTool(t, m, "memory_info"), nil)
	assert.Contains(t, text, "Memory contains 3 messages")
}

func TestMemoryStats(t *testing.T) {
	m, mgr := newTestMemoryModule(t)
	seedSession(t, mgr, "work", 2)

	text := callText(t, findTool(t, m, "get_memory_stats"), map[string]interface{}{"session_id": "work"})
	assert.Contains(t, text, "Memory Statistics for Session 'work':")
	assert.Contains(t, text, "Messages: 2")
	assert.Contains(t, text, "First Message:")
	assert.Contains(t, text, "Average tokens per message:")
}

func TestAllSessions(t *testing.T) {
	m, mgr := newTestMemoryModule(t)

	text := callText(t, findTool(t, m, "get_all_sessions"), nil)
	assert.Contains(t, text, "No conversation sessions found.")

	seedSession(t, mgr, "alpha", 1)
	seedSession(t, mgr, "beta", 2)

	text = callText(t, findTool(t, m, "get_all_sessions"), nil)
	assert.Contains(t, text, "Available Sessions (2 total)")
	assert.Contains(t, text, "'alpha'")
	assert.Contains(t, text, "'beta'")
}

func TestClearSession(t *testing.T) {
	m, mgr := newTestMemoryModule(t)
	seedSession(t, mgr, "scratch", 2)

	text := callText(t, findTool(t, m, "clear_session"), map[string]interface{}{"session_id": "scratch"})
	assert.Contains(t, text, "Successfully cleared session 'scratch'")
	assert.Empty(t, mgr.GetSessionHistory("scratch"))

	text = callText(t, findTool(t, m, "clear_session"), map[string]interface{}{"session_id": "missing"})
	assert.Contains(t, text, "session not found")
}

func TestClearSessionDefersToDispatcher(t *testing.T) {
	mgr := memory.NewManager(memory.NewInMemoryStore())
	m, err := NewMemoryModule(mgr, true)
	require.NoError(t, err)
	m.SetDispatcher(func(description string, action approval.Action) string {
		return "awaiting approval: " + description
	})
	seedSession(t, mgr, "scratch", 1)

	text := callText(t, findTool(t, m, "clear_session"), map[string]interface{}{"session_id": "scratch"})
	assert.Equal(t, "awaiting approval: Clear session: scratch", text)
	// Not executed until the approval layer runs the action.
	assert.Len(t, mgr.GetSessionHistory("scratch"), 1)
}

func TestExportImportRoundTrip(t *testing.T) {
	m, mgr := newTestMemoryModule(t)
	seedSession(t, mgr, "source", 2)

	text := callText(t, findTool(t, m, "export_session"), map[string]interface{}{"session_id": "source"})
	assert.Contains(t, text, "Exported session 'source'")
	assert.Contains(t, text, "Messages: 2")

	data, err := mgr.ExportSession("source")
	require.NoError(t, err)

	text = callText(t, findTool(t, m, "import_session"), map[string]interface{}{
		"session_id": "copy", "data": data,
	})
	assert.Contains(t, text, "Successfully imported data into session 'copy'")
	assert.Len(t, mgr.GetSessionHistory("copy"), 2)

	text = callText(t, findTool(t, m, "import_session"), map[string]interface{}{
		"session_id": "bad", "data": "not json",
	})
	assert.Contains(t, text, "Failed to import data")
}

func TestCleanupOldSessions(t *testing.T) {
	m, mgr := newTestMemoryModule(t)
	seedSession(t, mgr, "fresh", 1)

	text := callText(t, findTool(t, m, "cleanup_old_sessions"), map[string]interface{}{"days_old": 30})
	assert.Contains(t, text, "No sessions found older than 30 days")

	// Backdate a session past the threshold, then clean again.
	old := memory.NewMessage("user", "ancient")
	old.Timestamp = time.Now().AddDate(0, 0, -60)
	data, err := json.Marshal(map[string]interface{}{"messages": []memory.Message{old}})
	require.NoError(t, err)
	require.NoError(t, mgr.ImportSession("stale", string(data)))

	text = callText(t, findTool(t, m, "cleanup_old_sessions"), map[string]interface{}{"days_old": 30})
	assert.Contains(t, text, "Cleaned up 1 sessions older than 30 days")
	assert.NotContains(t, mgr.Sessions(), "stale")
}

func TestMemorySummary(t *testing.T) {
	m, mgr := newTestMemoryModule(t)
	seedSession(t, mgr, "a", 1)
	seedSession(t, mgr, "b", 3)

	text := callText(t, findTool(t, m, "get_memory_summary"), nil)
	assert.Contains(t, text, "Sessions: 2")
	assert.Contains(t, text, "Total Messages: 4")
	assert.Contains(t, text, "Average Messages/Session: 2.0")
	assert.Contains(t, text, "'b': 3 messages")
}

func TestTrimSession(t *testing.T) {
	m, mgr := newTestMemoryModule(t)
	seedSession(t, mgr, "long", 5)

	text := callText(t, findTool(t, m, "trim_session_messages"), map[string]interface{}{
		"session_id": "long", "max_messages": 2,
	})
	assert.Contains(t, text, "Trimmed 3 old messages from session 'long'")
	assert.Len(t, mgr.GetSessionHistory("long"), 2)

	text = callText(t, findTool(t, m, "trim_session_messages"), map[string]interface{}{
		"session_id": "long", "max_messages": 10,
	})
	assert.Contains(t, text, "no trimming needed")
}

func TestMemoryConfigsMatchTools(t *testing.T) {
	m, _ := newTestMemoryModule(t)

	handles, err := m.Tools()
	require.NoError(t, err)
	configs := m.Configs()
	require.Len(t, configs, len(handles))
	for _, h := range handles {
		cfg, ok := configs[h.Name]
		require.True(t, ok, "missing config for %s", h.Name)
		assert.Equal(t, CategoryMemory, cfg.Category)
		assert.Equal(t, h.RequireApproval, cfg.RequiresApproval, h.Name)
	}
}
