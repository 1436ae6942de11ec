package cli

import (
	"github.com/roach88/reprise/msg"
)

// filterTrace selects the causal chain rooted at one top-level request: the
// trigger itself, every request carrying its trace offset, the responses to
// those requests, and the trace's terminal message.
func filterTrace(msgs []msg.Message, trace int64) []msg.Message {
	selected := make(map[int64]bool)
	var out []msg.Message

	for _, m := range msgs {
		keep := false
		switch v := m.(type) {
		case msg.CreateEntityRequestReceived:
			keep = v.Offset == trace
		case msg.EntityMethodRequestReceived:
			keep = v.Offset == trace
		case msg.EntityMethodRequestSent:
			keep = v.TraceOffset == trace
		case msg.CreateEntityRequestSent:
			keep = v.TraceOffset == trace
		case msg.ServiceRequestSent:
			keep = v.TraceOffset == trace
		case msg.EntityMethodResponseSent:
			keep = v.RequestOffset == trace
		case msg.CreateEntityResponseSent:
			keep = v.RequestOffset == trace
		case msg.ErrorRaised:
			keep = v.TraceOffset == trace
		default:
			if reqOffset, ok := msg.ResponseRequestOffset(m); ok {
				keep = selected[reqOffset]
			}
		}
		if keep {
			selected[m.MsgOffset()] = true
			out = append(out, m)
		}
	}
	return out
}
