package core

// Agent defines the core interface that all agents in Loom must implement.
//
// Agents are the primary processing units of the runtime. They receive input
// through a RunContext, process it and deliver events through the context's
// Emit callback. The interface supports both standalone agents and
// hierarchical compositions through the sub-agent management methods.
//
// Implementations must:
//   - Respect context cancellation for graceful shutdown
//   - Deliver events through the provided RunContext
//   - Manage their lifecycle through Start/Stop methods
type Agent interface {
	Name() string
	Start(runCtx *RunContext) error
	Stop(runCtx *RunContext) error
	Run(runCtx *RunContext) error
	SetSubAgents(children ...Agent) error
	SubAgents() []Agent
	Parent() Agent
	FindAgent(name string) Agent
	Description() string
}

// AgentInfo carries identifying details about an agent used in contexts & events.
// Name is the external identifier; Type categorizes implementation (e.g. "model", "worker").
type AgentInfo struct{ Name, Type string }
