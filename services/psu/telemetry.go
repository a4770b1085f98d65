package psu

import (
	"benchpsu-go/bus"
	"benchpsu-go/types"
)

var (
	TopicConn   = bus.T("psu", "conn")
	TopicState  = bus.T("psu", "state")
	TopicEvent  = bus.T("psu", "event")
	TopicConfig = bus.T("config", "psu")
)

// Event tags published under psu/event/<tag>.
const (
	EventOutput = "output"
	EventSelect = "select"
	EventRemote = "remote"
)

// publisher is a nil-safe wrapper; a device without a bus connection
// publishes nothing.
type publisher struct {
	conn *bus.Connection
	now  func() int64
}

func (p publisher) connMode(mode types.ConnMode) {
	if p.conn == nil {
		return
	}
	p.conn.Publish(p.conn.NewMessage(TopicConn, types.ConnValue{Mode: mode, TSms: p.now()}, true))
}

func (p publisher) state(v types.StateValue) {
	if p.conn == nil {
		return
	}
	v.TSms = p.now()
	p.conn.Publish(p.conn.NewMessage(TopicState, v, true))
}

func (p publisher) event(tag string) {
	if p.conn == nil {
		return
	}
	p.conn.Publish(p.conn.NewMessage(TopicEvent.Append(tag), types.EventValue{Tag: tag, TSms: p.now()}, false))
}
