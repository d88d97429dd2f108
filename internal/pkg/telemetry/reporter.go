package telemetry

import (
	"github.com/airenas/go-app/pkg/goapp"
)

type event struct {
	recordingID string
	err         error
}

// Reporter is a best effort error telemetry sink. Reports are dispatched
// asynchronously and dropped when the buffer is full, a slow sink can
// never stall the request being served.
type Reporter struct {
	ch   chan event
	done chan struct{}
}

// NewReporter creates and starts the reporter
func NewReporter() *Reporter {
	res := &Reporter{ch: make(chan event, 100), done: make(chan struct{})}
	go res.run()
	return res
}

// Report queues a collaborator failure tagged with the recording id,
// it never blocks and never fails
func (r *Reporter) Report(recordingID string, err error) {
	if err == nil {
		return
	}
	select {
	case r.ch <- event{recordingID: recordingID, err: err}:
	default:
		goapp.Log.Warn().Str("recordingID", recordingID).Msg("telemetry buffer full - drop event")
	}
}

// Close stops the reporter draining queued events
func (r *Reporter) Close() {
	close(r.ch)
	<-r.done
}

func (r *Reporter) run() {
	defer close(r.done)
	for ev := range r.ch {
		goapp.Log.Error().Str("recordingID", ev.recordingID).Err(ev.err).Msg("collaborator failure")
	}
}
