// Package memory provides session-scoped conversation memory: a keyed message
// history with size and token accounting, JSON export/import, and cleanup
// helpers. It is the collaborator behind the memory tool module.
package memory

import (
	"encoding/json"
	"fmt"
	"time"
)

// Manager wraps a Store with the operations the memory tools need.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	if store == nil {
		store = NewInMemoryStore()
	}
	return &Manager{store: store}
}

// AddMessage records a conversation entry for a session and returns it.
func (m *Manager) AddMessage(sessionID, role, content string) (Message, error) {
	msg := NewMessage(role, content)
	if err := m.store.Append(sessionID, msg); err != nil {
		return Message{}, fmt.Errorf("failed to append message: %w", err)
	}
	return msg, nil
}

// GetSessionHistory returns the session's messages in insertion order.
func (m *Manager) GetSessionHistory(sessionID string) []Message {
	return m.store.History(sessionID)
}

// ClearSession removes all history for a session. Reports whether the
// session existed.
func (m *Manager) ClearSession(sessionID string) bool {
	return m.store.Clear(sessionID)
}

// Sessions returns all known session ids.
func (m *Manager) Sessions() []string {
	return m.store.Sessions()
}

// Stats computes the memory footprint of one session.
func (m *Manager) Stats(sessionID string) Stats {
	msgs := m.store.History(sessionID)

	var stats Stats
	stats.MessageCount = len(msgs)
	for _, msg := range msgs {
		stats.TotalTokens += msg.Tokens
		stats.MemorySizeBytes += len(msg.Content)
	}
	if len(msgs) > 0 {
		stats.FirstMessageTime = msgs[0].Timestamp
		stats.LastMessageTime = msgs[len(msgs)-1].Timestamp
	}
	return stats
}

type sessionExport struct {
	SessionID string    `json:"session_id"`
	Stats     Stats     `json:"stats"`
	Messages  []Message `json:"messages"`
	Exported  time.Time `json:"exported"`
}

// ExportSession serializes a session to indented JSON.
func (m *Manager) ExportSession(sessionID string) (string, error) {
	export := sessionExport{
		SessionID: sessionID,
		Stats:     m.Stats(sessionID),
		Messages:  m.store.History(sessionID),
		Exported:  time.Now(),
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to export session %s: %w", sessionID, err)
	}
	return string(data), nil
}

// ImportSession replaces a session's history with previously exported data.
func (m *Manager) ImportSession(sessionID, data string) error {
	var export sessionExport
	if err := json.Unmarshal([]byte(data), &export); err != nil {
		return fmt.Errorf("failed to parse import data: %w", err)
	}
	if err := m.store.Replace(sessionID, export.Messages); err != nil {
		return fmt.Errorf("failed to import session %s: %w", sessionID, err)
	}
	return nil
}

// CleanupOldSessions removes sessions whose most recent message is older than
// the given number of days. Returns how many sessions were removed.
func (m *Manager) CleanupOldSessions(daysOld int) int {
	cutoff := time.Now().AddDate(0, 0, -daysOld)

	removed := 0
	for _, sessionID := range m.store.Sessions() {
		stats := m.Stats(sessionID)
		if stats.MessageCount == 0 {
			continue
		}
		if stats.LastMessageTime.Before(cutoff) {
			if m.store.Clear(sessionID) {
				removed++
			}
		}
	}
	return removed
}

// TrimSession keeps only the most recent maxMessages entries of a session.
// Returns how many messages were dropped.
func (m *Manager) TrimSession(sessionID string, maxMessages int) int {
	if maxMessages < 0 {
		maxMessages = 0
	}

	msgs := m.store.History(sessionID)
	if len(msgs) <= maxMessages {
		return 0
	}

	removed := len(msgs) - maxMessages
	if err := m.store.Replace(sessionID, msgs[removed:]); err != nil {
		return 0
	}
	return removed
}

// Summary aggregates usage across all sessions.
func (m *Manager) Summary() Summary {
	summary := Summary{Sessions: make([]SessionSummary, 0)}

	for _, sessionID := range m.store.Sessions() {
		stats := m.Stats(sessionID)
		summary.TotalSessions++
		summary.TotalMessages += stats.MessageCount
		summary.TotalMemoryBytes += stats.MemorySizeBytes
		summary.Sessions = append(summary.Sessions, SessionSummary{
			SessionID:       sessionID,
			MessageCount:    stats.MessageCount,
			MemorySizeBytes: stats.MemorySizeBytes,
		})
	}

	if summary.TotalSessions > 0 {
		summary.AverageMessagesPerSession = float64(summary.TotalMessages) / float64(summary.TotalSessions)
	}
	return summary
}
