package engine

import (
	"log/slog"

	"github.com/roach88/reprise/entity"
	"github.com/roach88/reprise/msg"
	"github.com/roach88/reprise/value"
)

// interceptor is the entity.Caller handed to the subject's method body. It
// mediates every external action: during replay it satisfies interactions
// from the logged pairs in strict order; at the first interaction the log
// has not decided it records the request and unwinds the method.
//
// Unwinding uses a panic carrying suspendSignal or faultSignal; the driver
// recovers both. Domain code must not recover them.
type interceptor struct {
	exec    *Execution
	trace   int64 // trigger offset, inherited by every emitted message
	logged  []*loggedInteraction
	cursor  int
	steps   int
	outputs *[]msg.Message
}

var _ entity.Caller = (*interceptor)(nil)

// Self returns the subject's identity handle.
func (c *interceptor) Self() value.Ref {
	return c.exec.subjectRef
}

// Call invokes a method on another entity.
func (c *interceptor) Call(receiver value.Ref, method string, args value.Object) (value.Value, error) {
	return c.interact(func(offset int64) msg.Message {
		return msg.EntityMethodRequestSent{
			Offset:      offset,
			TraceOffset: c.trace,
			Receiver:    receiver,
			Method:      method,
			Args:        args,
		}
	})
}

// Create constructs a new entity of the given kind.
func (c *interceptor) Create(kind string, args value.Object) (value.Ref, error) {
	v, err := c.interact(func(offset int64) msg.Message {
		return msg.CreateEntityRequestSent{
			Offset:      offset,
			TraceOffset: c.trace,
			EntityKind:  kind,
			Args:        args,
		}
	})
	if err != nil {
		return value.Ref{}, err
	}
	ref, ok := v.(value.Ref)
	if !ok {
		panic(faultSignal{faultf(msg.FaultLogInconsistent,
			"create response for kind %q carries %T, want entity ref", kind, v)})
	}
	return ref, nil
}

// CallService invokes a method on an external service.
func (c *interceptor) CallService(service, method string, args value.Object) (value.Value, error) {
	return c.interact(func(offset int64) msg.Message {
		return msg.ServiceRequestSent{
			Offset:      offset,
			TraceOffset: c.trace,
			Service:     service,
			Method:      method,
			Args:        args,
		}
	})
}

// interact matches one outgoing interaction against the log, or records it
// and suspends. build constructs the request record for a given offset;
// fingerprints ignore offsets, so a placeholder is used for matching.
func (c *interceptor) interact(build func(offset int64) msg.Message) (value.Value, error) {
	c.steps++
	if c.steps > c.exec.maxInteractions {
		panic(faultSignal{faultf(msg.FaultQuotaExceeded,
			"execution exceeded max interactions (%d)", c.exec.maxInteractions)})
	}

	probe := build(0)
	fp, err := msg.RequestFingerprint(probe)
	if err != nil {
		panic(faultSignal{faultf(msg.FaultContractViolation, "outgoing request: %v", err)})
	}

	if c.cursor < len(c.logged) {
		entry := c.logged[c.cursor]
		if fp != entry.fingerprint {
			panic(faultSignal{faultf(msg.FaultNonDeterministic,
				"interaction %d diverges from log: issued %s, logged %s at offset %d",
				c.cursor, describeRequest(probe), describeRequest(entry.request),
				entry.request.MsgOffset())})
		}
		c.cursor++

		if entry.response == nil {
			// The tail request is still awaiting its response; the prior
			// Complete call already recorded it.
			slog.Debug("execution still suspended",
				"request_offset", entry.request.MsgOffset(),
				"trace_offset", c.trace,
			)
			panic(suspendSignal{})
		}

		slog.Debug("replay matched interaction",
			"request_offset", entry.request.MsgOffset(),
			"response_offset", entry.response.MsgOffset(),
			"trace_offset", c.trace,
		)
		return responseValue(entry.response)
	}

	// No logged counterpart: new interaction, record it and suspend.
	sent := build(c.exec.clock.Next())
	*c.outputs = append(*c.outputs, sent)
	slog.Debug("execution suspended",
		"kind", sent.MsgKind(),
		"offset", sent.MsgOffset(),
		"trace_offset", c.trace,
	)
	panic(suspendSignal{})
}

// responseValue converts a logged response record into the (value, error)
// pair the method body observes.
func responseValue(m msg.Message) (value.Value, error) {
	switch r := m.(type) {
	case msg.EntityMethodResponseReceived:
		return r.Response, nil
	case msg.CreateEntityResponseReceived:
		return r.Entity, nil
	case msg.ServiceResponseReceived:
		return r.Response, nil
	case msg.EntityMethodErrorReceived:
		derr := r.Error
		return nil, &derr
	case msg.CreateEntityErrorReceived:
		derr := r.Error
		return nil, &derr
	case msg.ServiceErrorReceived:
		derr := r.Error
		return nil, &derr
	}
	panic(faultSignal{faultf(msg.FaultLogInconsistent,
		"message %s at offset %d is not a response", m.MsgKind(), m.MsgOffset())})
}

// describeRequest renders a request's target for fault reasons.
func describeRequest(m msg.Message) string {
	switch r := m.(type) {
	case msg.EntityMethodRequestSent:
		return "call " + r.Receiver.String() + "." + r.Method
	case msg.CreateEntityRequestSent:
		return "create " + r.EntityKind
	case msg.ServiceRequestSent:
		return "service " + r.Service + "." + r.Method
	}
	return string(m.MsgKind())
}
