package tools

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/agentio/toolgate/ai"
	"github.com/agentio/toolgate/memory"
)

// Options configures the registry. EnabledCategories and EnabledTools narrow
// what GetTools returns by default; empty slices mean no restriction.
type Options struct {
	Memory            *memory.Manager
	EnableApproval    bool
	EnabledCategories []string
	EnabledTools      []string
	Dispatcher        Dispatcher

	// MCP, when set, connects the configured servers and exposes their tools.
	MCP *ai.MCPConfig

	// Host overrides MCP connection setup with an already-connected host.
	// Used by embedders that manage the host lifecycle themselves.
	Host *ai.MCPHost
}

// Registry is the composition root for tool modules. It builds the modules,
// tolerates individual module failures, merges their configs, and answers
// which tools are active for a given filter.
type Registry struct {
	mu sync.RWMutex

	opts    Options
	modules []Module
	configs map[string]Config

	defaultCategories []Category

	customTools   []ai.Tool
	customConfigs map[string]Config
}

// NewRegistry builds all modules. A module whose construction fails is logged
// and skipped; the registry stays usable with whatever loaded.
func NewRegistry(opts Options) *Registry {
	r := &Registry{
		opts:          opts,
		configs:       make(map[string]Config),
		customConfigs: make(map[string]Config),
	}
	r.defaultCategories = parseCategories(opts.EnabledCategories)
	r.build()
	return r
}

func (r *Registry) build() {
	r.modules = nil
	clear(r.configs)

	r.addModule(NewBasicModule(r.opts.EnableApproval), nil)
	r.addModule(NewAdvancedModule(r.opts.EnableApproval), nil)

	if r.opts.Memory != nil {
		mod, err := NewMemoryModule(r.opts.Memory, r.opts.EnableApproval)
		r.addModule(mod, err)
	}

	if r.opts.Host != nil || r.opts.MCP != nil {
		host := r.opts.Host
		var servers map[string]ai.ServerConfig
		if r.opts.MCP != nil {
			servers = r.opts.MCP.MCPServers
		}
		if host == nil {
			var err error
			host, err = ai.NewMCPHost(r.opts.MCP)
			if err != nil {
				slog.Error("failed to initialize module", "module", "mcp", "error", err)
				host = nil
			}
		}
		if host != nil {
			mod, err := NewMCPModule(host, servers, r.opts.EnableApproval)
			r.addModule(mod, err)
		}
	}
}

// addModule registers a constructed module. Config merge is last-wins on name
// collision, matching module registration order.
func (r *Registry) addModule(m Module, err error) {
	if err != nil {
		slog.Error("failed to initialize module", "module", moduleKey(m), "error", err)
		return
	}
	m.SetDispatcher(r.opts.Dispatcher)
	r.modules = append(r.modules, m)
	for name, cfg := range m.Configs() {
		r.configs[name] = cfg
	}
	slog.Info("module loaded", "module", m.Key(), "tools", len(m.Configs()))
}

func moduleKey(m Module) string {
	if m == nil {
		return "unknown"
	}
	return m.Key()
}

// GetTools returns the active tool handles: enabled, matching the category
// filter and the name filter, in module-registration order then handle order
// within a module. Nil filters fall back to the registry's configured
// defaults; the registry-level enabled_tools list applies on top.
func (r *Registry) GetTools(categories []Category, names []string) []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if categories == nil {
		categories = r.defaultCategories
	}
	categorySet := make(map[Category]bool, len(categories))
	for _, c := range categories {
		categorySet[c] = true
	}

	nameSet := make(map[string]bool, len(names))
	for _, n := range names {
		nameSet[n] = true
	}
	defaultNames := make(map[string]bool, len(r.opts.EnabledTools))
	for _, n := range r.opts.EnabledTools {
		defaultNames[n] = true
	}

	keep := func(t ai.Tool) bool {
		cfg, ok := r.configs[t.Name]
		if !ok || !cfg.Enabled {
			return false
		}
		if len(categorySet) > 0 && !categorySet[cfg.Category] {
			return false
		}
		if len(nameSet) > 0 && !nameSet[t.Name] {
			return false
		}
		if len(defaultNames) > 0 && !defaultNames[t.Name] {
			return false
		}
		return true
	}

	var active []ai.Tool
	for _, m := range r.modules {
		handles, err := m.Tools()
		if err != nil {
			slog.Error("failed to enumerate tools", "module", m.Key(), "error", err)
			continue
		}
		for _, t := range handles {
			if keep(t) {
				active = append(active, t)
			}
		}
	}
	for _, t := range r.customTools {
		if keep(t) {
			active = append(active, t)
		}
	}
	return active
}

// ToolByName returns the handle for a single tool, searching modules in
// registration order and custom tools last.
func (r *Registry) ToolByName(name string) (ai.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.modules {
		handles, err := m.Tools()
		if err != nil {
			continue
		}
		for _, t := range handles {
			if t.Name == name {
				return t, true
			}
		}
	}
	for _, t := range r.customTools {
		if t.Name == name {
			return t, true
		}
	}
	return ai.Tool{}, false
}

// Config returns the merged config for a tool name.
func (r *Registry) Config(name string) (Config, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	return cfg, ok
}

// Configs returns a copy of the merged config map.
func (r *Registry) Configs() map[string]Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Config, len(r.configs))
	for k, v := range r.configs {
		out[k] = v
	}
	return out
}

// RegisterCustomTool adds a user-defined tool under the custom category. The
// name must not collide with an existing config.
func (r *Registry) RegisterCustomTool(tool ai.Tool, cfg Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tool.Name == "" {
		return fmt.Errorf("custom tool needs a name")
	}
	if _, exists := r.configs[tool.Name]; exists {
		return fmt.Errorf("tool %q is already registered", tool.Name)
	}

	cfg.Name = tool.Name
	cfg.Category = CategoryCustom
	cfg.Enabled = true
	if cfg.RiskLevel == "" {
		cfg.RiskLevel = RiskLow
	}

	r.customTools = append(r.customTools, tool)
	r.customConfigs[tool.Name] = cfg
	r.configs[tool.Name] = cfg
	slog.Info("custom tool registered", "tool", tool.Name)
	return nil
}

// Reload rebuilds the module set, dropping custom tools.
func (r *Registry) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.customTools = nil
	clear(r.customConfigs)
	r.build()
	slog.Info("registry reloaded", "modules", len(r.modules), "tools", len(r.configs))
}

// Statistics summarizes the registry for a status display.
type Statistics struct {
	TotalTools    int
	EnabledTools  int
	ModulesLoaded int
	Categories    map[Category]int
}

func (r *Registry) Statistics() Statistics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Statistics{
		ModulesLoaded: len(r.modules),
		Categories:    make(map[Category]int),
	}
	for _, cfg := range r.configs {
		stats.TotalTools++
		if cfg.Enabled {
			stats.EnabledTools++
		}
		stats.Categories[cfg.Category]++
	}
	return stats
}

// ToolInfo groups tool metadata by category for a presentation layer.
func (r *Registry) ToolInfo() map[Category][]map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info := make(map[Category][]map[string]any)
	for _, cfg := range r.configs {
		info[cfg.Category] = append(info[cfg.Category], cfg.ToMap())
	}
	return info
}
