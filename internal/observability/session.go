package observability

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/viaduct/internal/protocol/frame"
)

const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// SessionObserver records frame traffic to Prometheus and keeps a status
// snapshot readable from other goroutines.
type SessionObserver struct {
	node string

	framesIn  atomic.Uint64
	framesOut atomic.Uint64
	failures  atomic.Uint64

	mu        sync.Mutex
	realm     string
	sessionID int64
	lastError string
	since     time.Time
}

// SessionStatus is the JSON view served on /status.
type SessionStatus struct {
	Node      string `json:"node"`
	Realm     string `json:"realm,omitempty"`
	SessionID int64  `json:"session_id,omitempty"`
	Joined    bool   `json:"joined"`
	Uptime    string `json:"uptime,omitempty"`
	FramesIn  uint64 `json:"frames_in"`
	FramesOut uint64 `json:"frames_out"`
	Failures  uint64 `json:"failures"`
	LastError string `json:"last_error,omitempty"`
}

func NewSessionObserver(node string) *SessionObserver {
	RegisterMetrics()
	return &SessionObserver{node: node}
}

func (o *SessionObserver) FrameReceived(kind frame.Kind, size int) {
	o.framesIn.Add(1)
	RecordFrame(o.node, DirectionIn, kind.String(), size)
}

func (o *SessionObserver) FrameSent(kind frame.Kind, size int) {
	o.framesOut.Add(1)
	RecordFrame(o.node, DirectionOut, kind.String(), size)
}

func (o *SessionObserver) MessageFailed(err error) {
	o.failures.Add(1)
	RecordMessageFailure(o.node)
	o.mu.Lock()
	o.lastError = err.Error()
	o.mu.Unlock()
}

// Joined marks the session as established on realm.
func (o *SessionObserver) Joined(realm string, sessionID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.realm = realm
	o.sessionID = sessionID
	o.since = time.Now()
}

// Left clears the joined state, keeping reason as the last error.
func (o *SessionObserver) Left(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sessionID = 0
	o.since = time.Time{}
	if reason != "" {
		o.lastError = reason
	}
}

func (o *SessionObserver) Snapshot() SessionStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	st := SessionStatus{
		Node:      o.node,
		Realm:     o.realm,
		SessionID: o.sessionID,
		Joined:    o.sessionID != 0,
		FramesIn:  o.framesIn.Load(),
		FramesOut: o.framesOut.Load(),
		Failures:  o.failures.Load(),
		LastError: o.lastError,
	}
	if st.Joined {
		st.Uptime = time.Since(o.since).Truncate(time.Second).String()
	}
	return st
}
