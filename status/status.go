// Package status defines the node-status sink consumed by the UI transport.
// Only the contract and basic reporters live here; the websocket delivery
// is someone else's job.
package status

import (
	"sync"

	"go.uber.org/zap"
)

// Known status labels. Rejections use free-form "unsupported: <reason>"
// labels on top of these.
const (
	Starting  = "starting"
	Started   = "started"
	Stopped   = "stopped"
	Dead      = "dead"
	Restarted = "restarted"
)

const (
	ColorGreen = "green"
	ColorRed   = "red"
	ColorBlue  = "blue"
)

const (
	ShapeRing = "ring"
	ShapeDot  = "dot"
)

// Reporter receives node-status updates. Implementations must be safe for
// concurrent use; reports may come from many node actors at once.
type Reporter interface {
	Report(scope, nodeID, text, color, shape string)
}

// ZapReporter logs every status update. Used as the default sink and in
// development setups without a UI.
type ZapReporter struct {
	log *zap.Logger
}

func NewZapReporter(log *zap.Logger) *ZapReporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapReporter{log: log}
}

func (r *ZapReporter) Report(scope, nodeID, text, color, shape string) {
	r.log.Info("node status",
		zap.String("scope", scope),
		zap.String("node", nodeID),
		zap.String("status", text),
		zap.String("color", color),
		zap.String("shape", shape),
	)
}

// Entry is one recorded status report.
type Entry struct {
	Scope  string
	NodeID string
	Text   string
	Color  string
	Shape  string
}

// Recorder collects status reports for inspection in tests.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Report(scope, nodeID, text, color, shape string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Scope: scope, NodeID: nodeID, Text: text, Color: color, Shape: shape})
}

// Entries returns a copy of everything reported so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Last returns the most recent entry for the given node, if any.
func (r *Recorder) Last(nodeID string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].NodeID == nodeID {
			return r.entries[i], true
		}
	}
	return Entry{}, false
}
