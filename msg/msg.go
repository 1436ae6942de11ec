// Package msg defines the closed message taxonomy crossing the engine
// boundary. Every event in an execution's life — state snapshots, top-level
// work, outgoing interactions, their responses, terminal results, and
// faults — is one of these records. The engine consumes and produces only
// these shapes; callers never pass raw data.
package msg

import (
	"github.com/roach88/reprise/entity"
	"github.com/roach88/reprise/value"
)

// None marks an absent optional offset field.
const None int64 = -1

// Kind names a message variant. The set is closed.
type Kind string

const (
	KindEntityStateChanged           Kind = "EntityStateChanged"
	KindCreateEntityRequestReceived  Kind = "CreateEntityRequestReceived"
	KindEntityMethodRequestReceived  Kind = "EntityMethodRequestReceived"
	KindEntityMethodRequestSent      Kind = "EntityMethodRequestSent"
	KindEntityMethodResponseReceived Kind = "EntityMethodResponseReceived"
	KindEntityMethodErrorReceived    Kind = "EntityMethodErrorReceived"
	KindEntityMethodResponseSent     Kind = "EntityMethodResponseSent"
	KindCreateEntityRequestSent      Kind = "CreateEntityRequestSent"
	KindCreateEntityResponseReceived Kind = "CreateEntityResponseReceived"
	KindCreateEntityErrorReceived    Kind = "CreateEntityErrorReceived"
	KindCreateEntityResponseSent     Kind = "CreateEntityResponseSent"
	KindServiceRequestSent           Kind = "ServiceRequestSent"
	KindServiceResponseReceived      Kind = "ServiceResponseReceived"
	KindServiceErrorReceived         Kind = "ServiceErrorReceived"
	KindErrorRaised                  Kind = "ErrorRaised"
)

// Message is implemented by every record in the taxonomy.
// All implementations are value types; a []Message is safely copyable.
type Message interface {
	MsgKind() Kind
	MsgOffset() int64
}

// EntityStateChanged applies a state snapshot to the subject entity.
// Inbound it restores state before any method body runs; outbound it
// captures the subject's post-state at completion.
type EntityStateChanged struct {
	Offset int64       `json:"offset"`
	State  value.Value `json:"state"`
}

func (m EntityStateChanged) MsgKind() Kind    { return KindEntityStateChanged }
func (m EntityStateChanged) MsgOffset() int64 { return m.Offset }

// CreateEntityRequestReceived asks the engine to materialize a new subject:
// run the entity type's constructor with the given arguments.
type CreateEntityRequestReceived struct {
	Offset int64        `json:"offset"`
	Args   value.Object `json:"args"`
}

func (m CreateEntityRequestReceived) MsgKind() Kind    { return KindCreateEntityRequestReceived }
func (m CreateEntityRequestReceived) MsgOffset() int64 { return m.Offset }

// EntityMethodRequestReceived is the top-level call to execute.
// Its offset becomes the trace offset of every derived message.
type EntityMethodRequestReceived struct {
	Offset int64        `json:"offset"`
	Method string       `json:"method"`
	Args   value.Object `json:"args"`
}

func (m EntityMethodRequestReceived) MsgKind() Kind    { return KindEntityMethodRequestReceived }
func (m EntityMethodRequestReceived) MsgOffset() int64 { return m.Offset }

// EntityMethodRequestSent records that the subject called a method on
// another entity. The engine emits it and suspends.
type EntityMethodRequestSent struct {
	Offset      int64        `json:"offset"`
	TraceOffset int64        `json:"trace_offset"`
	Receiver    value.Ref    `json:"receiver"`
	Method      string       `json:"method"`
	Args        value.Object `json:"args"`
}

func (m EntityMethodRequestSent) MsgKind() Kind    { return KindEntityMethodRequestSent }
func (m EntityMethodRequestSent) MsgOffset() int64 { return m.Offset }

// EntityMethodResponseReceived is the reply to an earlier
// EntityMethodRequestSent.
type EntityMethodResponseReceived struct {
	Offset        int64       `json:"offset"`
	RequestOffset int64       `json:"request_offset"`
	Response      value.Value `json:"response"`
}

func (m EntityMethodResponseReceived) MsgKind() Kind    { return KindEntityMethodResponseReceived }
func (m EntityMethodResponseReceived) MsgOffset() int64 { return m.Offset }

// EntityMethodErrorReceived delivers a domain error raised by the receiver
// of an earlier EntityMethodRequestSent. The method body observes it as the
// call's error result and may handle or translate it.
type EntityMethodErrorReceived struct {
	Offset        int64              `json:"offset"`
	RequestOffset int64              `json:"request_offset"`
	Error         entity.DomainError `json:"error"`
}

func (m EntityMethodErrorReceived) MsgKind() Kind    { return KindEntityMethodErrorReceived }
func (m EntityMethodErrorReceived) MsgOffset() int64 { return m.Offset }

// EntityMethodResponseSent is the terminal return value of the top-level
// method.
type EntityMethodResponseSent struct {
	Offset        int64       `json:"offset"`
	RequestOffset int64       `json:"request_offset"`
	Response      value.Value `json:"response"`
}

func (m EntityMethodResponseSent) MsgKind() Kind    { return KindEntityMethodResponseSent }
func (m EntityMethodResponseSent) MsgOffset() int64 { return m.Offset }

// CreateEntityRequestSent records that the subject constructed an entity;
// construction is deferred to the host.
type CreateEntityRequestSent struct {
	Offset      int64        `json:"offset"`
	TraceOffset int64        `json:"trace_offset"`
	EntityKind  string       `json:"entity_kind"`
	Args        value.Object `json:"args"`
}

func (m CreateEntityRequestSent) MsgKind() Kind    { return KindCreateEntityRequestSent }
func (m CreateEntityRequestSent) MsgOffset() int64 { return m.Offset }

// CreateEntityResponseReceived carries the identity of the entity the host
// materialized for an earlier CreateEntityRequestSent.
type CreateEntityResponseReceived struct {
	Offset        int64     `json:"offset"`
	RequestOffset int64     `json:"request_offset"`
	Entity        value.Ref `json:"entity"`
}

func (m CreateEntityResponseReceived) MsgKind() Kind    { return KindCreateEntityResponseReceived }
func (m CreateEntityResponseReceived) MsgOffset() int64 { return m.Offset }

// CreateEntityErrorReceived delivers a domain error raised by the
// constructor of an entity the subject tried to create.
type CreateEntityErrorReceived struct {
	Offset        int64              `json:"offset"`
	RequestOffset int64              `json:"request_offset"`
	Error         entity.DomainError `json:"error"`
}

func (m CreateEntityErrorReceived) MsgKind() Kind    { return KindCreateEntityErrorReceived }
func (m CreateEntityErrorReceived) MsgOffset() int64 { return m.Offset }

// CreateEntityResponseSent acknowledges that the subject's constructor
// completed. The subject's first state snapshot follows it.
type CreateEntityResponseSent struct {
	Offset        int64 `json:"offset"`
	RequestOffset int64 `json:"request_offset"`
}

func (m CreateEntityResponseSent) MsgKind() Kind    { return KindCreateEntityResponseSent }
func (m CreateEntityResponseSent) MsgOffset() int64 { return m.Offset }

// ServiceRequestSent records a call to an external service.
type ServiceRequestSent struct {
	Offset      int64        `json:"offset"`
	TraceOffset int64        `json:"trace_offset"`
	Service     string       `json:"service"`
	Method      string       `json:"method"`
	Args        value.Object `json:"args"`
}

func (m ServiceRequestSent) MsgKind() Kind    { return KindServiceRequestSent }
func (m ServiceRequestSent) MsgOffset() int64 { return m.Offset }

// ServiceResponseReceived is the reply to an earlier ServiceRequestSent.
type ServiceResponseReceived struct {
	Offset        int64       `json:"offset"`
	RequestOffset int64       `json:"request_offset"`
	Response      value.Value `json:"response"`
}

func (m ServiceResponseReceived) MsgKind() Kind    { return KindServiceResponseReceived }
func (m ServiceResponseReceived) MsgOffset() int64 { return m.Offset }

// ServiceErrorReceived delivers a domain error raised by a service call.
type ServiceErrorReceived struct {
	Offset        int64              `json:"offset"`
	RequestOffset int64              `json:"request_offset"`
	Error         entity.DomainError `json:"error"`
}

func (m ServiceErrorReceived) MsgKind() Kind    { return KindServiceErrorReceived }
func (m ServiceErrorReceived) MsgOffset() int64 { return m.Offset }

// FaultCode categorizes an ErrorRaised message.
type FaultCode string

const (
	// FaultLogInconsistent indicates a response without a matching request,
	// a shape mismatch between a request and its response, or a logged
	// record the engine cannot use (a rejected snapshot, a request with the
	// wrong trace offset).
	FaultLogInconsistent FaultCode = "LOG_INCONSISTENT"

	// FaultNonDeterministic indicates the replayed method diverged from the
	// log: different interaction, different arguments, different order, or
	// fewer interactions than the log holds.
	FaultNonDeterministic FaultCode = "NON_DETERMINISTIC"

	// FaultContractViolation indicates malformed input: offsets not
	// strictly increasing, multiple top-level requests, or missing
	// top-level request when method progress is expected.
	FaultContractViolation FaultCode = "CONTRACT_VIOLATION"

	// FaultDomainFailure indicates the method body terminated abnormally.
	FaultDomainFailure FaultCode = "DOMAIN_FAILURE"

	// FaultQuotaExceeded indicates the execution exceeded its interaction
	// quota.
	FaultQuotaExceeded FaultCode = "QUOTA_EXCEEDED"
)

// ErrorRaised reports an abnormal termination: a domain failure in lieu of
// the top-level response, or an engine fault. It is always the final
// message of an output sequence.
//
// TraceOffset and RequestOffset are None when the fault precedes work
// selection.
type ErrorRaised struct {
	Offset        int64               `json:"offset"`
	TraceOffset   int64               `json:"trace_offset"`
	RequestOffset int64               `json:"request_offset"`
	Fault         FaultCode           `json:"fault"`
	Error         *entity.DomainError `json:"error,omitempty"`
	Reason        string              `json:"reason"`
}

func (m ErrorRaised) MsgKind() Kind    { return KindErrorRaised }
func (m ErrorRaised) MsgOffset() int64 { return m.Offset }

// IsTrigger reports whether m defines top-level work: a constructor call or
// a method call on the subject.
func IsTrigger(m Message) bool {
	switch m.MsgKind() {
	case KindCreateEntityRequestReceived, KindEntityMethodRequestReceived:
		return true
	}
	return false
}

// IsRequestSent reports whether m is an outgoing interaction record.
func IsRequestSent(m Message) bool {
	switch m.MsgKind() {
	case KindEntityMethodRequestSent, KindCreateEntityRequestSent, KindServiceRequestSent:
		return true
	}
	return false
}

// ResponseRequestOffset returns the request offset a response or inbound
// error answers. ok is false for non-response kinds.
func ResponseRequestOffset(m Message) (offset int64, ok bool) {
	switch r := m.(type) {
	case EntityMethodResponseReceived:
		return r.RequestOffset, true
	case EntityMethodErrorReceived:
		return r.RequestOffset, true
	case CreateEntityResponseReceived:
		return r.RequestOffset, true
	case CreateEntityErrorReceived:
		return r.RequestOffset, true
	case ServiceResponseReceived:
		return r.RequestOffset, true
	case ServiceErrorReceived:
		return r.RequestOffset, true
	}
	return 0, false
}

// ResponsePairsWith reports whether a response kind answers a request kind:
// entity-method responses answer entity-method requests, and so on.
func ResponsePairsWith(response, request Kind) bool {
	switch response {
	case KindEntityMethodResponseReceived, KindEntityMethodErrorReceived:
		return request == KindEntityMethodRequestSent
	case KindCreateEntityResponseReceived, KindCreateEntityErrorReceived:
		return request == KindCreateEntityRequestSent
	case KindServiceResponseReceived, KindServiceErrorReceived:
		return request == KindServiceRequestSent
	}
	return false
}

// IsTerminal reports whether m ends a trace: a top-level response,
// a constructor acknowledgement, or a raised error.
func IsTerminal(m Message) bool {
	switch m.MsgKind() {
	case KindEntityMethodResponseSent, KindCreateEntityResponseSent, KindErrorRaised:
		return true
	}
	return false
}
