package tools

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdvancedModule(t *testing.T) *AdvancedModule {
	t.Helper()
	m := NewAdvancedModule(false)
	m.baseDir = t.TempDir()
	return m
}

func TestWebSearchFormatsResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Write([]byte(`{
			"AbstractText": "Go is a statically typed language.",
			"AbstractURL": "https://golang.org",
			"Answer": "42",
			"RelatedTopics": [
				{"Text": "Go programming language", "FirstURL": "https://go.dev"}
			]
		}`))
	}))
	defer server.Close()

	m := newTestAdvancedModule(t)
	m.searchURL = server.URL

	text := callText(t, findTool(t, m, "web_search"), map[string]interface{}{"query": "golang"})
	assert.Contains(t, text, "Web Search Results for: 'golang'")
	assert.Contains(t, text, "Go is a statically typed language.")
	assert.Contains(t, text, "Source: https://golang.org")
	assert.Contains(t, text, "Quick Answer: 42")
	assert.Contains(t, text, "1. Go programming language")
}

func TestWebSearchEmptyPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	m := newTestAdvancedModule(t)
	m.searchURL = server.URL

	text := callText(t, findTool(t, m, "web_search"), map[string]interface{}{"query": "obscure thing"})
	assert.Contains(t, text, "No detailed information found")
	assert.Contains(t, text, "https://duckduckgo.com/?q=obscure+thing")
}

func TestWebSearchRequiresQuery(t *testing.T) {
	m := newTestAdvancedModule(t)
	text := callText(t, findTool(t, m, "web_search"), map[string]interface{}{"query": "  "})
	assert.Equal(t, "Error: Please provide a search query", text)
}

func TestWebSearchServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	m := newTestAdvancedModule(t)
	m.searchURL = server.URL

	text := callText(t, findTool(t, m, "web_search"), map[string]interface{}{"query": "anything"})
	assert.Contains(t, text, "Search error:")
	assert.Contains(t, text, "502")
}

func TestFileOperationsRoundTrip(t *testing.T) {
	m := newTestAdvancedModule(t)
	fileOps := findTool(t, m, "file_operations")

	text := callText(t, fileOps, map[string]interface{}{
		"operation": "write", "path": "notes/today.txt", "content": "hello",
	})
	assert.Contains(t, text, "Successfully wrote 5 characters")

	text = callText(t, fileOps, map[string]interface{}{
		"operation": "append", "path": "notes/today.txt", "content": " world",
	})
	assert.Contains(t, text, "Successfully appended 6 characters")

	text = callText(t, fileOps, map[string]interface{}{"operation": "read", "path": "notes/today.txt"})
	assert.Contains(t, text, "hello world")

	text = callText(t, fileOps, map[string]interface{}{"operation": "list", "path": "notes"})
	assert.Contains(t, text, "today.txt")

	text = callText(t, fileOps, map[string]interface{}{"operation": "delete", "path": "notes/today.txt"})
	assert.Contains(t, text, "Successfully deleted file")

	text = callText(t, fileOps, map[string]interface{}{"operation": "read", "path": "notes/today.txt"})
	assert.Contains(t, text, "File not found")
}

func TestFileOperationsConfinement(t *testing.T) {
	m := newTestAdvancedModule(t)
	fileOps := findTool(t, m, "file_operations")

	for _, path := range []string{"../escape.txt", "../../etc/passwd", "a/../../b"} {
		text := callText(t, fileOps, map[string]interface{}{"operation": "read", "path": path})
		assert.Contains(t, text, "Security error", "path %s must be denied", path)
	}

	// Paths inside the base directory that merely contain dot-dots are fine.
	text := callText(t, fileOps, map[string]interface{}{
		"operation": "write", "path": "sub/../ok.txt", "content": "x",
	})
	assert.Contains(t, text, "Successfully wrote")
}

func TestFileOperationsLimits(t *testing.T) {
	m := newTestAdvancedModule(t)
	fileOps := findTool(t, m, "file_operations")

	text := callText(t, fileOps, map[string]interface{}{
		"operation": "write", "path": "big.txt", "content": strings.Repeat("x", maxWriteSize+1),
	})
	assert.Contains(t, text, "Content too large")

	text = callText(t, fileOps, map[string]interface{}{"operation": "write", "path": "empty.txt"})
	assert.Contains(t, text, "No content provided")

	require.NoError(t, os.WriteFile(filepath.Join(m.baseDir, "dir.txt"), []byte("x"), 0644))
	text = callText(t, fileOps, map[string]interface{}{"operation": "delete", "path": "."})
	assert.Contains(t, text, "Can only delete files")

	text = callText(t, fileOps, map[string]interface{}{"operation": "chmod", "path": "dir.txt"})
	assert.Contains(t, text, "Unknown operation: chmod")
}

func TestWeatherInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Tokyo", r.URL.Path)
		w.Write([]byte(`{
			"current_condition": [{
				"temp_C": "22", "temp_F": "72",
				"FeelsLikeC": "21", "FeelsLikeF": "70",
				"humidity": "65", "visibility": "10", "pressure": "1013",
				"windspeedKmph": "12", "winddir16Point": "NE",
				"weatherDesc": [{"value": "Partly cloudy"}]
			}],
			"nearest_area": [{
				"areaName": [{"value": "Tokyo"}],
				"country": [{"value": "Japan"}],
				"region": [{"value": "Kanto"}]
			}],
			"weather": [{
				"date": "2026-08-23", "maxtempC": "28", "mintempC": "20",
				"maxtempF": "82", "mintempF": "68",
				"hourly": [{"weatherDesc": [{"value": "Sunny"}]}]
			}]
		}`))
	}))
	defer server.Close()

	m := newTestAdvancedModule(t)
	m.weatherURL = server.URL

	text := callText(t, findTool(t, m, "weather_info"), map[string]interface{}{"location": "Tokyo"})
	assert.Contains(t, text, "Weather for Tokyo, Kanto, Japan")
	assert.Contains(t, text, "Temperature: 22°C (72°F)")
	assert.Contains(t, text, "Condition: Partly cloudy")
	assert.Contains(t, text, "3-Day Forecast:")
	assert.Contains(t, text, "2026-08-23: 20°C - 28°C")
}

func TestWeatherInfoRequiresLocation(t *testing.T) {
	m := newTestAdvancedModule(t)
	tool := findTool(t, m, "weather_info")
	result, err := tool.Call(map[string]interface{}{"location": ""})
	require.NoError(t, err)
	assert.True(t, result.Error)
}

func TestRandomFactFromAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "Bees can recognize human faces."}`))
	}))
	defer server.Close()

	m := newTestAdvancedModule(t)
	m.factURL = server.URL

	text := callText(t, findTool(t, m, "random_fact"), nil)
	assert.Contains(t, text, "Bees can recognize human faces.")
	assert.Contains(t, text, "Source: uselessfacts.jsph.pl")
}

func TestRandomFactFallsBackLocally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	m := newTestAdvancedModule(t)
	m.factURL = server.URL

	text := callText(t, findTool(t, m, "random_fact"), nil)
	assert.Contains(t, text, "Random Fact:")
	assert.Contains(t, text, "Source: Local fact database")
}

func TestAINewsSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("q"), "artificial intelligence")
		w.Write([]byte(`{
			"AbstractText": "Recent developments in machine learning.",
			"RelatedTopics": [
				{"Text": "Neural network breakthroughs", "FirstURL": "https://example.com/nn"},
				{"Text": "Cooking recipes", "FirstURL": "https://example.com/food"}
			]
		}`))
	}))
	defer server.Close()

	m := newTestAdvancedModule(t)
	m.searchURL = server.URL

	text := callText(t, findTool(t, m, "ai_news_search"), map[string]interface{}{"topic": "robotics"})
	assert.Contains(t, text, "AI News Search Results for: 'robotics'")
	assert.Contains(t, text, "Recent developments in machine learning.")
	assert.Contains(t, text, "Neural network breakthroughs")
	// Off-topic related results are filtered out.
	assert.NotContains(t, text, "Cooking recipes")
	assert.Contains(t, text, "Suggested AI Topics to Explore:")
}
