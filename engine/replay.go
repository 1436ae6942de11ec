package engine

import (
	"github.com/roach88/reprise/msg"
)

// loggedInteraction is one already-logged outgoing request, paired with its
// response once the host has delivered one. Replay consumes these strictly
// in log order.
type loggedInteraction struct {
	request     msg.Message
	fingerprint string
	response    msg.Message // nil while unanswered
}

// replayPlan is the decomposition of one input sequence: the snapshots to
// apply, the top-level work, the interactions already decided by the log,
// and the terminal message if the conversation already ended.
type replayPlan struct {
	states   []msg.EntityStateChanged
	trigger  msg.Message // CreateEntityRequestReceived or EntityMethodRequestReceived
	logged   []*loggedInteraction
	terminal msg.Message
}

// buildPlan decomposes a statically valid input sequence. The sequence must
// already have passed msg.ValidateLog; buildPlan adds the trace-correlation
// checks that need the trigger.
func buildPlan(inputs []msg.Message) (*replayPlan, *Fault) {
	plan := &replayPlan{}

	for _, m := range inputs {
		switch v := m.(type) {
		case msg.EntityStateChanged:
			plan.states = append(plan.states, v)

		case msg.CreateEntityRequestReceived, msg.EntityMethodRequestReceived:
			plan.trigger = m

		case msg.EntityMethodRequestSent, msg.CreateEntityRequestSent, msg.ServiceRequestSent:
			if plan.trigger == nil {
				return nil, faultf(msg.FaultContractViolation,
					"request at offset %d precedes the top-level request", m.MsgOffset())
			}
			if trace := requestTraceOffset(m); trace != plan.trigger.MsgOffset() {
				return nil, faultf(msg.FaultLogInconsistent,
					"request at offset %d carries trace offset %d, want %d",
					m.MsgOffset(), trace, plan.trigger.MsgOffset())
			}
			fp, err := msg.RequestFingerprint(m)
			if err != nil {
				return nil, faultf(msg.FaultLogInconsistent,
					"request at offset %d: %v", m.MsgOffset(), err)
			}
			plan.logged = append(plan.logged, &loggedInteraction{request: m, fingerprint: fp})

		case msg.EntityMethodResponseSent:
			if plan.trigger != nil && v.RequestOffset == plan.trigger.MsgOffset() {
				plan.terminal = m
			}

		case msg.CreateEntityResponseSent:
			if plan.trigger != nil && v.RequestOffset == plan.trigger.MsgOffset() {
				plan.terminal = m
			}

		case msg.ErrorRaised:
			plan.terminal = m

		default:
			// A response: attach to the logged request whose offset it
			// names. msg.ValidateLog guarantees pairing and ordering.
			if reqOffset, ok := msg.ResponseRequestOffset(m); ok {
				for _, li := range plan.logged {
					if li.request.MsgOffset() == reqOffset {
						li.response = m
						break
					}
				}
			}
		}
	}

	return plan, nil
}

// requestTraceOffset returns the trace offset of an outgoing request record.
func requestTraceOffset(m msg.Message) int64 {
	switch r := m.(type) {
	case msg.EntityMethodRequestSent:
		return r.TraceOffset
	case msg.CreateEntityRequestSent:
		return r.TraceOffset
	case msg.ServiceRequestSent:
		return r.TraceOffset
	}
	return msg.None
}
