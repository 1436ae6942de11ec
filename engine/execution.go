package engine

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/roach88/reprise/entity"
	"github.com/roach88/reprise/msg"
	"github.com/roach88/reprise/value"
)

// DefaultMaxInteractions bounds the number of outgoing interactions one
// Complete call may replay or emit. This prevents a runaway method body
// from consuming unbounded resources.
const DefaultMaxInteractions = 1000

// Option configures an Execution.
type Option func(*Execution)

// WithMaxInteractions sets the interaction quota per Complete call.
//
// Default: 1000 interactions (DefaultMaxInteractions).
// Use a small value to test quota enforcement.
func WithMaxInteractions(n int) Option {
	return func(e *Execution) {
		e.maxInteractions = n
	}
}

// Execution drives one entity's pending work from its last snapshot to the
// next external interaction point or to completion. It lives for one
// conversation: the caller feeds it the accumulated message log and appends
// the outputs (plus any newly arrived responses) before the next Complete.
//
// An Execution assumes exclusive access to its subject for the duration of
// each Complete call. Serializing concurrent executions of one entity is
// the host's responsibility; the engine performs no locking and no
// parallelism of its own.
type Execution struct {
	factory         entity.Factory
	subject         entity.Entity
	subjectRef      value.Ref
	context         []msg.Message
	clock           *offsetClock
	maxInteractions int
	state           runState
}

type runState int

const (
	runIdle runState = iota
	runSuspended
	runCompleted
	runFailed
)

// New constructs an execution for one entity type. The factory must
// produce a blank entity; the engine restores state or runs Init on it.
func New(factory entity.Factory, opts ...Option) *Execution {
	if factory == nil {
		panic("engine: nil entity factory")
	}
	subject := factory()
	e := &Execution{
		factory:         factory,
		subject:         subject,
		subjectRef:      value.SubjectRef(subject.Kind()),
		maxInteractions: DefaultMaxInteractions,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subject returns the placeholder handle for "the entity this execution
// belongs to". It is safe to embed in input-message arguments before
// Complete runs; during replay every occurrence denotes the concrete
// subject entity.
func (e *Execution) Subject() value.Ref {
	return e.subjectRef
}

// SubjectEntity returns the concrete subject after replay. Its state
// reflects the last Complete call.
func (e *Execution) SubjectEntity() entity.Entity {
	return e.subject
}

// Context returns the combined consumed+produced message log of the last
// Complete call.
func (e *Execution) Context() []msg.Message {
	return e.context
}

// Complete consumes an ordered input message sequence, drives the subject's
// pending work to its next external interaction point or to completion, and
// returns the ordered output sequence.
//
// Complete never reports failures as Go errors: domain failures, log
// inconsistencies, non-determinism, and contract violations all surface as
// a trailing ErrorRaised message. A panic raised by domain code (a method
// body, Restore, or Snapshot) is not recovered and propagates to the caller.
func (e *Execution) Complete(inputs []msg.Message) []msg.Message {
	e.context = slices.Clone(inputs)
	e.clock = newOffsetClock(msg.MaxOffset(inputs))
	e.state = runIdle
	e.subject = e.factory()

	outputs := []msg.Message{}

	if err := msg.ValidateLog(inputs); err != nil {
		var logErr *msg.LogError
		if !errors.As(err, &logErr) {
			logErr = &msg.LogError{Fault: msg.FaultContractViolation, Reason: err.Error()}
		}
		return e.fail(outputs, &Fault{Code: logErr.Fault, Reason: logErr.Reason}, msg.None, msg.None)
	}

	plan, fault := buildPlan(inputs)
	if fault != nil {
		return e.fail(outputs, fault, msg.None, msg.None)
	}

	// State rebuild: every snapshot applies in offset order before any
	// method body runs; the last one wins.
	for _, sc := range plan.states {
		if err := e.subject.Restore(sc.State); err != nil {
			return e.fail(outputs, faultf(msg.FaultLogInconsistent,
				"snapshot at offset %d rejected by %s: %v", sc.Offset, e.subject.Kind(), err),
				msg.None, msg.None)
		}
		slog.Debug("state snapshot applied", "offset", sc.Offset, "kind", e.subject.Kind())
	}

	if plan.trigger == nil {
		// Only state updates: no progress to make.
		return outputs
	}

	trace := plan.trigger.MsgOffset()

	if plan.terminal != nil {
		// The conversation already ended; replay has nothing to add.
		if plan.terminal.MsgKind() == msg.KindErrorRaised {
			e.state = runFailed
		} else {
			e.state = runCompleted
		}
		return outputs
	}

	c := &interceptor{
		exec:    e,
		trace:   trace,
		logged:  plan.logged,
		outputs: &outputs,
	}

	result, signal, err := e.run(c, plan.trigger)
	switch sig := signal.(type) {
	case suspendSignal:
		e.state = runSuspended
		e.context = append(e.context, outputs...)
		return outputs
	case faultSignal:
		return e.fail(outputs, sig.fault, trace, trace)
	}

	if err != nil {
		if errors.Is(err, entity.ErrUnknownMethod) {
			return e.fail(outputs, faultf(msg.FaultContractViolation,
				"%s: %v", e.subject.Kind(), err), trace, trace)
		}
		if derr, ok := entity.AsDomainError(err); ok {
			slog.Debug("domain failure", "error", derr.Name, "trace_offset", trace)
			return e.fail(outputs, &Fault{
				Code:   msg.FaultDomainFailure,
				Reason: derr.Error(),
				Domain: derr,
			}, trace, trace)
		}
		return e.fail(outputs, &Fault{
			Code:   msg.FaultDomainFailure,
			Reason: err.Error(),
		}, trace, trace)
	}

	// The method returned. Every logged interaction must have been
	// re-issued; leftovers mean the method now does less than the log says.
	if c.cursor < len(plan.logged) {
		leftover := plan.logged[c.cursor].request
		return e.fail(outputs, faultf(msg.FaultNonDeterministic,
			"method completed but log still holds %s at offset %d",
			describeRequest(leftover), leftover.MsgOffset()), trace, trace)
	}

	switch plan.trigger.MsgKind() {
	case msg.KindCreateEntityRequestReceived:
		outputs = append(outputs, msg.CreateEntityResponseSent{
			Offset:        e.clock.Next(),
			RequestOffset: trace,
		})
	default:
		if result == nil {
			result = value.Null{}
		}
		outputs = append(outputs, msg.EntityMethodResponseSent{
			Offset:        e.clock.Next(),
			RequestOffset: trace,
			Response:      result,
		})
	}

	snapshot, snapErr := e.subject.Snapshot()
	if snapErr != nil {
		return e.fail(outputs, faultf(msg.FaultContractViolation,
			"snapshot of %s failed: %v", e.subject.Kind(), snapErr), trace, trace)
	}
	outputs = append(outputs, msg.EntityStateChanged{
		Offset: e.clock.Next(),
		State:  snapshot,
	})

	e.state = runCompleted
	e.context = append(e.context, outputs...)
	slog.Debug("execution completed",
		"trace_offset", trace,
		"outputs", len(outputs),
	)
	return outputs
}

// run invokes the trigger's method body, converting the interceptor's
// unwinding panics into signal values. Any other panic propagates.
func (e *Execution) run(c *interceptor, trigger msg.Message) (result value.Value, signal any, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case suspendSignal, faultSignal:
				signal = r
			default:
				panic(r)
			}
		}
	}()

	switch t := trigger.(type) {
	case msg.CreateEntityRequestReceived:
		return nil, nil, e.subject.Init(c, t.Args)
	case msg.EntityMethodRequestReceived:
		result, err = e.subject.Invoke(c, t.Method, t.Args)
		return result, nil, err
	}
	return nil, nil, nil
}

// fail reifies a fault as the trailing ErrorRaised message.
func (e *Execution) fail(outputs []msg.Message, f *Fault, trace, request int64) []msg.Message {
	raised := msg.ErrorRaised{
		Offset:        e.clock.Next(),
		TraceOffset:   trace,
		RequestOffset: request,
		Fault:         f.Code,
		Error:         f.Domain,
		Reason:        f.Reason,
	}
	outputs = append(outputs, raised)
	e.state = runFailed
	e.context = append(e.context, outputs...)
	slog.Warn("execution fault",
		"fault", f.Code,
		"reason", f.Reason,
		"trace_offset", trace,
	)
	return outputs
}

// Cleanup compacts the execution's log once the work has completed: it
// returns the processed prefix for archival and retains only what the next
// conversation needs.
//
//   - Completed: everything up to the terminal response is processed; the
//     final state snapshot is retained as the seed of the next log.
//   - Failed: the whole log, fault included, is processed; nothing is
//     retained (the post-state is invalid).
//   - Suspended or idle: nothing is processed; the log is retained intact.
func (e *Execution) Cleanup() []msg.Message {
	switch e.state {
	case runCompleted:
		if n := len(e.context); n > 0 {
			if last, ok := e.context[n-1].(msg.EntityStateChanged); ok {
				processed := e.context[:n-1:n]
				e.context = []msg.Message{last}
				return processed
			}
		}
		processed := e.context
		e.context = []msg.Message{}
		return processed
	case runFailed:
		processed := e.context
		e.context = []msg.Message{}
		return processed
	default:
		return []msg.Message{}
	}
}
