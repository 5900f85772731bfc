package node

// TypeSupervisor is the type tag of supervisor nodes; the only node type
// whose behavior lives in this repository.
const TypeSupervisor = "supervisor"

// Config is the immutable per-deployment configuration of one flow node.
// It is produced by the flow loader once per deploy and handed to the actor
// at start; actors never mutate it.
type Config struct {
	ID    string     `json:"id"`
	Type  string     `json:"type"`
	Name  string     `json:"name,omitempty"`
	Flow  string     `json:"z,omitempty"`
	Wires [][]string `json:"wires,omitempty"`

	// supervisor-type nodes only. Scope is either an ordered list of child
	// node ids or a recognized-but-unsupported token ("flow", "group").
	Scope                interface{} `json:"scope,omitempty"`
	SupervisorKind       string      `json:"supervisorKind,omitempty"`
	Strategy             string      `json:"strategy,omitempty"`
	AutoShutdown         string      `json:"autoShutdown,omitempty"`
	Intensity            int         `json:"intensity,omitempty"`
	Period               int         `json:"period,omitempty"`
	ChildType            string      `json:"childType,omitempty"`
	ChildRestart         string      `json:"childRestart,omitempty"`
	ChildShutdown        string      `json:"childShutdown,omitempty"`
	ChildShutdownTimeout int         `json:"childShutdownTimeout,omitempty"`
}

// IsSupervisor reports whether this node is a supervisor-type node.
func (c *Config) IsSupervisor() bool {
	return c.Type == TypeSupervisor
}

// ScopeIDs returns the scope as an ordered id list. ok is false when the
// scope is not a list (a token like "flow", or garbage).
func (c *Config) ScopeIDs() (ids []string, ok bool) {
	switch scope := c.Scope.(type) {
	case []string:
		return scope, true
	case []interface{}:
		// scope decoded from JSON arrives as []interface{}
		ids = make([]string, 0, len(scope))
		for _, entry := range scope {
			id, isString := entry.(string)
			if !isString {
				return nil, false
			}
			ids = append(ids, id)
		}
		return ids, true
	default:
		return nil, false
	}
}

// DownstreamIDs returns the ids of all nodes wired downstream of this one,
// across all output ports.
func (c *Config) DownstreamIDs() []string {
	var ids []string
	for _, port := range c.Wires {
		ids = append(ids, port...)
	}
	return ids
}
