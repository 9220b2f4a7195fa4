package main

import (
	"github.com/danmuck/viaduct/internal/observability"
	"github.com/danmuck/viaduct/internal/protocol"
	"github.com/danmuck/viaduct/internal/protocol/wamp"
	"github.com/rs/zerolog"
)

type joinState int

const (
	joinPending joinState = iota
	joinWelcomed
	joinAborted
	joinClosed
)

// client tracks the realm membership driven by inbound messages.
type client struct {
	realm    string
	log      zerolog.Logger
	observer *observability.SessionObserver

	state     joinState
	sessionID int64
	reason    string
}

func (c *client) dispatcher() *wamp.Dispatcher {
	return &wamp.Dispatcher{
		OnWelcome: func(w wamp.Welcome) {
			c.state = joinWelcomed
			c.sessionID = w.Session
			c.observer.Joined(c.realm, w.Session)
			c.log.Info().Int64("session", w.Session).Str("realm", c.realm).Msg("viaductctl joined")
		},
		OnAbort: func(a wamp.Abort) {
			c.state = joinAborted
			c.reason = a.Reason
			c.observer.Left(a.Reason)
			c.log.Warn().Str("reason", a.Reason).Msg("viaductctl aborted")
		},
		OnGoodbye: func(g wamp.Goodbye) {
			c.state = joinClosed
			c.reason = g.Reason
			c.observer.Left(g.Reason)
			c.log.Info().Str("reason", g.Reason).Msg("viaductctl router said goodbye")
		},
		OnPublished: func(p wamp.Published) {
			c.log.Debug().Int64("request", p.Request).Int64("publication", p.Publication).Msg("viaductctl published")
		},
		OnSubscribed: func(s wamp.Subscribed) {
			c.log.Info().Int64("request", s.Request).Int64("subscription", s.Subscription).Msg("viaductctl subscribed")
		},
		OnEvent: func(e wamp.Event) {
			ev := c.log.Info().Int("args", len(e.Args)).Int("kwargs", len(e.Kwargs))
			if strs, err := e.Args.Strings(); err == nil {
				ev = ev.Strs("values", strs)
			}
			ev.Msg("viaductctl event")
		},
		OnOther: func(t protocol.MessageType, payload []byte) {
			c.log.Debug().Str("type", t.String()).Int("bytes", len(payload)).Msg("viaductctl ignored message")
		},
	}
}
