// Package completion implements the message-completion collaborator: it
// marks handled messages so they are never forwarded twice, and fans them
// out to the nodes wired downstream.
package completion

import (
	"time"

	cache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/jannikbecher/erlang-red/flowmsg"
	"github.com/jannikbecher/erlang-red/node"
	"github.com/jannikbecher/erlang-red/process"
)

const (
	// seenTTL bounds how long a completed message id is remembered. Flow
	// loops re-delivering later than this are somebody's design problem.
	seenTTL    = 5 * time.Minute
	sweepEvery = 10 * time.Minute
)

// Service is safe for concurrent use by many node actors.
type Service struct {
	groups *process.Groups
	seen   *cache.Cache
	log    *zap.Logger
}

func NewService(groups *process.Groups, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		groups: groups,
		seen:   cache.New(seenTTL, sweepEvery),
		log:    log,
	}
}

// PostCompleted propagates a handled message downstream exactly once per
// message id; repeats are dropped to break forwarding loops.
func (s *Service) PostCompleted(st *node.RuntimeState, msg *flowmsg.Msg) {
	if _, dup := s.seen.Get(msg.ID); dup {
		s.log.Debug("dropping already completed message",
			zap.String("node", st.Config.ID), zap.String("msg_id", msg.ID))
		return
	}
	s.seen.SetDefault(msg.ID, struct{}{})
	s.SendToConnected(st, msg.Clone(flowmsg.TypeCompleted))
}

// SendToConnected broadcasts to every live process of every node wired
// downstream of st's node. Fire and forget.
func (s *Service) SendToConnected(st *node.RuntimeState, msg *flowmsg.Msg) {
	if s.groups == nil {
		return
	}
	for _, id := range st.Config.DownstreamIDs() {
		s.groups.Broadcast(id, msg)
	}
}
