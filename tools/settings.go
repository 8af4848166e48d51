package tools

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/agentio/toolgate/ai"
	"github.com/agentio/toolgate/memory"
	"github.com/agentio/toolgate/utils"
)

// Settings is the YAML configuration surface for the registry. All fields are
// optional; zero values mean "approval off, everything enabled, no servers".
type Settings struct {
	EnableUserApproval bool     `yaml:"enable_user_approval"`
	EnabledCategories  []string `yaml:"enabled_categories"`
	EnabledTools       []string `yaml:"enabled_tools"`

	// EnvFile is loaded into the process environment before modules are
	// built, so tools that read API keys find them.
	EnvFile string `yaml:"env_file"`

	MCPServers map[string]ai.ServerConfig `yaml:"mcp_servers"`
}

// LoadSettings reads a YAML settings file. A missing file is not an error;
// defaults apply.
func LoadSettings(filename string) (*Settings, error) {
	var s Settings
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return &s, nil
		}
		return nil, fmt.Errorf("error reading settings file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("error parsing settings file %s: %w", filename, err)
	}
	return &s, nil
}

// Options converts the settings into registry options. The env file, when
// configured, is loaded here.
func (s *Settings) Options(mem *memory.Manager, dispatcher Dispatcher) (Options, error) {
	if s.EnvFile != "" {
		if err := utils.LoadEnvFile(s.EnvFile); err != nil {
			return Options{}, err
		}
	}

	opts := Options{
		Memory:            mem,
		EnableApproval:    s.EnableUserApproval,
		EnabledCategories: s.EnabledCategories,
		EnabledTools:      s.EnabledTools,
		Dispatcher:        dispatcher,
	}
	if len(s.MCPServers) > 0 {
		opts.MCP = &ai.MCPConfig{MCPServers: s.MCPServers}
	}
	return opts, nil
}
