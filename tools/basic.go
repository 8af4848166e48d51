package tools

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentio/toolgate/ai"
)

// BasicModule provides the fundamental utility tools: calculator, current
// time, text analysis and simple note keeping.
type BasicModule struct {
	approver

	mu     sync.Mutex
	notes  []note
	nextID int
}

type note struct {
	id      int
	content string
	created time.Time
}

func NewBasicModule(enableApproval bool) *BasicModule {
	return &BasicModule{
		approver: approver{enableApproval: enableApproval},
		nextID:   1,
	}
}

func (m *BasicModule) Key() string { return "basic" }

func (m *BasicModule) Tools() ([]ai.Tool, error) {
	return []ai.Tool{
		m.calculatorTool(),
		m.currentTimeTool(),
		m.textAnalyzerTool(),
		m.noteTakerTool(),
		m.getNotesTool(),
	}, nil
}

func (m *BasicModule) Configs() map[string]Config {
	return map[string]Config{
		"calculator": {
			Name:             "calculator",
			Category:         CategoryUtility,
			Description:      "Perform mathematical calculations",
			RequiresApproval: true,
			RiskLevel:        RiskMedium,
			Enabled:          true,
			ExampleUsage:     "Calculate 15 * 23",
			Parameters:       map[string]string{"expression": "Mathematical expression to evaluate"},
			Tags:             []string{"math", "calculation", "arithmetic"},
		},
		"get_current_time": {
			Name:         "get_current_time",
			Category:     CategoryInformation,
			Description:  "Get current date and time with timezone information",
			RiskLevel:    RiskLow,
			Enabled:      true,
			ExampleUsage: "What time is it?",
			Parameters:   map[string]string{},
			Tags:         []string{"time", "date", "timezone", "clock"},
		},
		"text_analyzer": {
			Name:         "text_analyzer",
			Category:     CategoryUtility,
			Description:  "Analyze text statistics including word count, readability, etc.",
			RiskLevel:    RiskLow,
			Enabled:      true,
			ExampleUsage: "Analyze this text: Hello world",
			Parameters:   map[string]string{"text": "Text to analyze"},
			Tags:         []string{"text", "analysis", "statistics", "readability"},
		},
		"note_taker": {
			Name:         "note_taker",
			Category:     CategoryProductivity,
			Description:  "Save notes with automatic timestamps",
			RiskLevel:    RiskLow,
			Enabled:      true,
			ExampleUsage: "Take a note: Buy groceries",
			Parameters:   map[string]string{"note": "Content of the note to save"},
			Tags:         []string{"notes", "productivity", "memory", "storage"},
		},
		"get_notes": {
			Name:         "get_notes",
			Category:     CategoryProductivity,
			Description:  "Retrieve all saved notes with timestamps and IDs",
			RiskLevel:    RiskLow,
			Enabled:      true,
			ExampleUsage: "Show me my notes",
			Parameters:   map[string]string{},
			Tags:         []string{"notes", "productivity", "retrieval", "list"},
		},
	}
}

func (m *BasicModule) calculatorTool() ai.Tool {
	return ai.Tool{
		Name:            "calculator",
		Description:     "Calculate mathematical expressions. Input should be a valid mathematical expression.",
		RequireApproval: true,
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"expression": map[string]interface{}{
					"type":        "string",
					"description": "Mathematical expression to evaluate",
				},
			},
			"required": []string{"expression"},
		},
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			expression := stringArg(args, "expression")

			result := m.requestApproval("Calculate: "+expression, func() (string, error) {
				v, err := evalExpression(expression)
				if err != nil {
					return fmt.Sprintf("Error: %v", err), nil
				}
				return fmt.Sprintf("Calculation result: %s", formatNumber(v)), nil
			})
			return ai.TextResult(result, false), nil
		},
	}
}

func (m *BasicModule) currentTimeTool() ai.Tool {
	return ai.Tool{
		Name:        "get_current_time",
		Description: "Get the current date and time with timezone information.",
		InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			now := time.Now()
			_, week := now.ISOWeek()
			text := fmt.Sprintf(`Current time information:
- Local time: %s
- Day of week: %s
- Month: %s
- ISO format: %s
- Unix timestamp: %d
- Week number: %d
- Day of year: %d`,
				now.Format("2006-01-02 15:04:05"),
				now.Weekday(),
				now.Month(),
				now.Format(time.RFC3339),
				now.Unix(),
				week,
				now.YearDay())
			return ai.TextResult(text, false), nil
		},
	}
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	wordClean     = regexp.MustCompile(`[^\p{L}\p{N}]`)
)

func (m *BasicModule) textAnalyzerTool() ai.Tool {
	return ai.Tool{
		Name:        "text_analyzer",
		Description: "Analyze text statistics including word count, character count, readability, and more.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to analyze",
				},
			},
			"required": []string{"text"},
		},
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			text := stringArg(args, "text")
			if strings.TrimSpace(text) == "" {
				return ai.TextResult("Error: Please provide text to analyze", true), nil
			}
			return ai.TextResult(analyzeText(text), false), nil
		},
	}
}

func analyzeText(text string) string {
	charCount := len([]rune(text))
	charCountNoSpaces := len([]rune(strings.ReplaceAll(text, " ", "")))
	words := strings.Fields(text)
	wordCount := len(words)

	sentenceCount := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentenceCount++
		}
	}

	paragraphCount := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			paragraphCount++
		}
	}

	var upper, lower, digits, punctuation int
	for _, r := range text {
		switch {
		case r >= 'A' && r <= 'Z':
			upper++
		case r >= 'a' && r <= 'z':
			lower++
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(".,!?;:", r):
			punctuation++
		}
	}

	// Word frequency, skipping very short words.
	freq := make(map[string]int)
	totalWordLen := 0
	for _, w := range words {
		totalWordLen += len([]rune(w))
		clean := wordClean.ReplaceAllString(strings.ToLower(w), "")
		if len([]rune(clean)) > 2 {
			freq[clean]++
		}
	}
	type wordCountPair struct {
		word  string
		count int
	}
	pairs := make([]wordCountPair, 0, len(freq))
	for w, c := range freq {
		pairs = append(pairs, wordCountPair{w, c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].word < pairs[j].word
	})
	if len(pairs) > 5 {
		pairs = pairs[:5]
	}

	var avgWordLen, avgSentenceLen float64
	if wordCount > 0 {
		avgWordLen = float64(totalWordLen) / float64(wordCount)
	}
	if sentenceCount > 0 {
		avgSentenceLen = float64(wordCount) / float64(sentenceCount)
	}

	// Flesch Reading Ease approximation with syllables estimated from word
	// length, clamped to 0-100.
	fleschScore := 0.0
	readability := "Unknown"
	if sentenceCount > 0 && wordCount > 0 {
		avgSyllables := avgWordLen * 0.5
		fleschScore = 206.835 - (1.015 * avgSentenceLen) - (84.6 * avgSyllables)
		fleschScore = math.Max(0, math.Min(100, fleschScore))
		switch {
		case fleschScore >= 90:
			readability = "Very Easy"
		case fleschScore >= 80:
			readability = "Easy"
		case fleschScore >= 70:
			readability = "Fairly Easy"
		case fleschScore >= 60:
			readability = "Standard"
		case fleschScore >= 50:
			readability = "Fairly Difficult"
		case fleschScore >= 30:
			readability = "Difficult"
		default:
			readability = "Very Difficult"
		}
	}

	var b strings.Builder
	b.WriteString("Text Analysis Results:\n\n")
	b.WriteString("Basic Statistics:\n")
	fmt.Fprintf(&b, "- Characters: %d (excluding spaces: %d)\n", charCount, charCountNoSpaces)
	fmt.Fprintf(&b, "- Words: %d\n", wordCount)
	fmt.Fprintf(&b, "- Sentences: %d\n", sentenceCount)
	fmt.Fprintf(&b, "- Paragraphs: %d\n\n", paragraphCount)
	b.WriteString("Character Composition:\n")
	fmt.Fprintf(&b, "- Uppercase letters: %d\n", upper)
	fmt.Fprintf(&b, "- Lowercase letters: %d\n", lower)
	fmt.Fprintf(&b, "- Digits: %d\n", digits)
	fmt.Fprintf(&b, "- Punctuation marks: %d\n\n", punctuation)
	b.WriteString("Averages:\n")
	fmt.Fprintf(&b, "- Average word length: %.1f characters\n", avgWordLen)
	fmt.Fprintf(&b, "- Average sentence length: %.1f words\n\n", avgSentenceLen)
	b.WriteString("Readability:\n")
	fmt.Fprintf(&b, "- Flesch Reading Ease: %.1f\n", fleschScore)
	fmt.Fprintf(&b, "- Readability level: %s", readability)

	if len(pairs) > 0 {
		b.WriteString("\n\nMost Frequent Words:\n")
		for i, p := range pairs {
			fmt.Fprintf(&b, "- %d. '%s' (%d times)\n", i+1, p.word, p.count)
		}
	}
	return b.String()
}

func (m *BasicModule) noteTakerTool() ai.Tool {
	return ai.Tool{
		Name:        "note_taker",
		Description: "Save a note with automatic timestamp and ID for later reference.",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"note": map[string]interface{}{
					"type":        "string",
					"description": "Content of the note to save",
				},
			},
			"required": []string{"note"},
		},
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			content := strings.TrimSpace(stringArg(args, "note"))
			if content == "" {
				return ai.TextResult("Error: Please provide note content to save", true), nil
			}

			m.mu.Lock()
			entry := note{id: m.nextID, content: content, created: time.Now()}
			m.nextID++
			m.notes = append(m.notes, entry)
			m.mu.Unlock()

			preview := content
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}
			text := fmt.Sprintf("Note #%d saved at %s\nContent: %s",
				entry.id, entry.created.Format("2006-01-02 15:04:05"), preview)
			return ai.TextResult(text, false), nil
		},
	}
}

func (m *BasicModule) getNotesTool() ai.Tool {
	return ai.Tool{
		Name:        "get_notes",
		Description: "Retrieve all saved notes with timestamps and IDs.",
		InputSchema: map[string]interface{}{"type": "object", "properties": map[string]interface{}{}},
		Execute: func(args map[string]interface{}) (*ai.ToolResult, error) {
			m.mu.Lock()
			notes := make([]note, len(m.notes))
			copy(notes, m.notes)
			m.mu.Unlock()

			if len(notes) == 0 {
				return ai.TextResult("No notes saved yet. Use the note_taker tool to save some notes.", false), nil
			}

			var b strings.Builder
			fmt.Fprintf(&b, "Your Saved Notes (%d total):\n\n", len(notes))
			// Newest first.
			for i := len(notes) - 1; i >= 0; i-- {
				n := notes[i]
				fmt.Fprintf(&b, "#%d [%s]\n%s\n\n", n.id, n.created.Format("2006-01-02 15:04:05"), n.content)
			}
			return ai.TextResult(strings.TrimRight(b.String(), "\n"), false), nil
		},
	}
}
