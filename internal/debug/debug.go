// Package debug provides the optional observability hook shared by the
// transport helper, the provider adapters and the aggregation engine.
package debug

import (
	"github.com/rs/zerolog/log"
)

// Tag prefixes every line written by the default sink.
const Tag = "[web-search]"

// LogFunc receives a message and optional structured data.
type LogFunc func(msg string, data any)

// Options controls debug output. The zero value logs nothing.
type Options struct {
	Enabled      bool
	LogRequests  bool
	LogResponses bool
	// Logger replaces the default zerolog sink when set.
	Logger LogFunc
}

// Log writes msg when debugging is enabled. It never panics.
func (o Options) Log(msg string, data any) {
	if !o.Enabled {
		return
	}
	defer func() {
		// A broken sink must not turn a search into a failure.
		_ = recover()
	}()
	sink := o.Logger
	if sink == nil {
		sink = defaultSink
	}
	sink(msg, data)
}

// LogRequest logs an outgoing request when both Enabled and LogRequests are set.
func (o Options) LogRequest(msg string, data any) {
	if !o.LogRequests {
		return
	}
	o.Log("REQUEST: "+msg, data)
}

// LogResponse logs an incoming response when both Enabled and LogResponses are set.
func (o Options) LogResponse(msg string, data any) {
	if !o.LogResponses {
		return
	}
	o.Log("RESPONSE: "+msg, data)
}

func defaultSink(msg string, data any) {
	ev := log.Info()
	if data != nil {
		ev = ev.Interface("data", data)
	}
	ev.Msg(Tag + " " + msg)
}
