package scraper

import (
	"context"

	"go.uber.org/zap"
)

// Stage names the phase a progress event belongs to.
type Stage string

const (
	StageInit     Stage = "init"
	StageBrowser  Stage = "browser"
	StageNavigate Stage = "navigate"
	StageScroll   Stage = "scroll"
	StageExtract  Stage = "extract"
	StageFinal    Stage = "final"
)

// Event is a progress notification. Percent is a coarse hint and may move
// backwards while entries are being extracted.
type Event struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message,omitempty"`
	Percent int    `json:"percent,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Current *int   `json:"current,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

// Sink consumes progress events.
type Sink func(Event)

// ChannelSink forwards events to ch. Sends give up once ctx is done so a
// departed consumer never stalls the session.
func ChannelSink(ctx context.Context, ch chan<- Event) Sink {
	return func(ev Event) {
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	}
}

// Reporter shields the session from misbehaving sinks.
type Reporter struct {
	sink Sink
	log  *zap.Logger
}

// NewReporter wraps sink. A nil sink discards events.
func NewReporter(sink Sink, log *zap.Logger) *Reporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reporter{sink: sink, log: log}
}

// Report delivers ev, swallowing any panic raised by the sink.
func (r *Reporter) Report(ev Event) {
	if r == nil || r.sink == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Warn("progress sink failed", zap.String("stage", string(ev.Stage)), zap.Any("panic", rec))
		}
	}()
	r.sink(ev)
}

func intp(v int) *int { return &v }
