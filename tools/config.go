// Package tools organizes agent tools into modules with declarative metadata,
// filters which tools are exposed for a given configuration, and routes
// risk-flagged actions through an approval dispatcher.
package tools

import (
	"errors"
	"fmt"
	"log/slog"
)

// Category classifies a tool for organization and filtering. The set is
// closed; strings coming from configuration are parsed at the boundary and
// rejected if unknown.
type Category string

const (
	CategoryUtility       Category = "utility"       // basic utility tools (calculator, text analysis)
	CategoryInformation   Category = "information"   // information retrieval (time, weather, facts)
	CategoryProductivity  Category = "productivity"  // productivity tools (notes, file operations)
	CategoryCommunication Category = "communication" // communication tools (web search)
	CategoryMemory        Category = "memory"        // memory management tools
	CategorySystem        Category = "system"        // system administration tools
	CategoryEntertainment Category = "entertainment" // entertainment and fun tools
	CategoryMCP           Category = "mcp"           // Model Context Protocol tools
	CategoryCustom        Category = "custom"        // custom user-defined tools
)

var ErrUnknownCategory = errors.New("unknown tool category")

// Categories returns every member of the closed set, in display order.
func Categories() []Category {
	return []Category{
		CategoryUtility,
		CategoryInformation,
		CategoryProductivity,
		CategoryCommunication,
		CategoryMemory,
		CategorySystem,
		CategoryEntertainment,
		CategoryMCP,
		CategoryCustom,
	}
}

// ParseCategory validates a configuration string against the closed set.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCategory, s)
}

// parseCategories converts configuration strings, logging and skipping
// unknown entries. An empty input means "all categories".
func parseCategories(names []string) []Category {
	if len(names) == 0 {
		return Categories()
	}

	parsed := make([]Category, 0, len(names))
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			slog.Warn("invalid category", "category", name)
			continue
		}
		parsed = append(parsed, c)
	}
	return parsed
}

// RiskLevel is a display hint for the operator. It is advisory only and is
// never enforced programmatically.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Config is the immutable descriptive metadata for one tool. Configs are
// created when a module is constructed and never mutated afterwards.
type Config struct {
	Name             string
	Category         Category
	Description      string
	RequiresApproval bool
	RiskLevel        RiskLevel
	Enabled          bool
	ExampleUsage     string
	Parameters       map[string]string
	Tags             []string
}

// ToMap converts the config to a plain key/value structure for transport to a
// presentation layer.
func (c Config) ToMap() map[string]any {
	return map[string]any{
		"name":              c.Name,
		"category":          string(c.Category),
		"description":       c.Description,
		"requires_approval": c.RequiresApproval,
		"risk_level":        string(c.RiskLevel),
		"enabled":           c.Enabled,
		"example_usage":     c.ExampleUsage,
		"parameters":        c.Parameters,
		"tags":              c.Tags,
	}
}
