package sysmsg

// SystemMessage is implemented by every message exchanged on the system lane
// of a mailbox, as opposed to user messages which are arbitrary values.
type SystemMessage interface {
	systemMessage()
}

// Reason describes why a process terminated.
type Reason struct {
	Type    string
	Details interface{}
}

const (
	// Kill is the reason attached to an exit caused by a Shutdown command.
	Kill          = "kill"
	Panic         = "panic"
	Normal        = "normal"
	SupMaxRestart = "sup_reached_max_restarts"
)

// Relation describes the relationship between a terminated process and the
// process receiving its exit notice.
type Relation string

const (
	Linked    Relation = "linked"
	Monitored Relation = "monitored"
)
