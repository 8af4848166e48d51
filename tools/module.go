package tools

import (
	"fmt"

	"github.com/agentio/toolgate/ai"
	"github.com/agentio/toolgate/approval"
)

// Dispatcher hands a gated action to the approval layer. By convention it
// registers a pending record and returns a deferral message, but the contract
// leaves synchronous-vs-deferred up to the dispatcher; whatever it returns
// becomes the tool's output.
type Dispatcher func(description string, action approval.Action) string

// Module is a capability provider: a set of invocable tool handles plus the
// declarative config for each. Implementations must never run risk-flagged
// logic directly; it goes through requestApproval on the embedded approver.
type Module interface {
	// Key identifies the module within the registry ("basic", "mcp", ...).
	Key() string

	// Tools returns the module's invocable handles. Each handle's Name must
	// match a key of Configs.
	Tools() ([]ai.Tool, error)

	// Configs returns the declarative metadata, keyed by tool name.
	Configs() map[string]Config

	// SetDispatcher installs the approval dispatcher.
	SetDispatcher(d Dispatcher)
}

// approver carries the per-module approval flag and dispatcher. Modules embed
// it to get the requestApproval behavior.
type approver struct {
	enableApproval bool
	dispatch       Dispatcher
}

func (a *approver) SetDispatcher(d Dispatcher) {
	a.dispatch = d
}

// requestApproval runs the action synchronously when approval is disabled or
// no dispatcher is installed, otherwise forwards it to the dispatcher and
// returns whatever the dispatcher returns. Action failures fold into the
// returned string; nothing escapes to the agent as an error.
func (a *approver) requestApproval(description string, action approval.Action) string {
	if !a.enableApproval || a.dispatch == nil {
		result, err := action()
		if err != nil {
			return fmt.Sprintf("Error: %v", err)
		}
		return result
	}
	return a.dispatch(description, action)
}

// stringArg extracts an optional string argument from a tool call.
func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// intArg extracts an integer argument, tolerating the float64 values JSON
// decoding produces.
func intArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
