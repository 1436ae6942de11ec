package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reprise/msg"
	"github.com/roach88/reprise/value"
)

func requireRaised(t *testing.T, outputs []msg.Message, fault msg.FaultCode) msg.ErrorRaised {
	t.Helper()
	require.NotEmpty(t, outputs)
	raised, ok := outputs[len(outputs)-1].(msg.ErrorRaised)
	require.True(t, ok, "last output should be ErrorRaised, got %T", outputs[len(outputs)-1])
	require.Equal(t, fault, raised.Fault)
	return raised
}

func TestFault_NonDeterministicInteraction(t *testing.T) {
	execution := New(newSender)
	receiver := value.Ref{Kind: "Receiver", ID: "recv-1"}

	// The log says the sender called "acknowledge", but the method body
	// calls "reply": replay diverges from the log.
	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: senderState(receiver)},
		msg.EntityMethodRequestReceived{
			Offset: 1, Method: "send",
			Args: value.Object{"message": value.String("Hello!")},
		},
		msg.EntityMethodRequestSent{
			Offset: 2, TraceOffset: 1,
			Receiver: receiver,
			Method:   "acknowledge",
			Args:     value.Object{"message": value.String("Hello!")},
		},
		msg.EntityMethodResponseReceived{Offset: 3, RequestOffset: 2, Response: value.String("ok")},
	})

	raised := requireRaised(t, outputs, msg.FaultNonDeterministic)
	assert.Equal(t, int64(4), raised.Offset)
	assert.Contains(t, raised.Reason, "diverges from log")
	assert.Nil(t, raised.Error)
}

func TestFault_NonDeterministicArguments(t *testing.T) {
	execution := New(newSender)
	receiver := value.Ref{Kind: "Receiver", ID: "recv-1"}

	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: senderState(receiver)},
		msg.EntityMethodRequestReceived{
			Offset: 1, Method: "send",
			Args: value.Object{"message": value.String("Hello!")},
		},
		msg.EntityMethodRequestSent{
			Offset: 2, TraceOffset: 1,
			Receiver: receiver,
			Method:   "reply",
			Args:     value.Object{"message": value.String("Goodbye!")},
		},
		msg.EntityMethodResponseReceived{Offset: 3, RequestOffset: 2, Response: value.String("ok")},
	})

	requireRaised(t, outputs, msg.FaultNonDeterministic)
}

func TestFault_FewerInteractionsThanLogged(t *testing.T) {
	execution := New(newCounter)

	// Counter.increment performs no interactions, yet the log claims a
	// service call happened.
	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: value.Int(10)},
		msg.EntityMethodRequestReceived{
			Offset: 1, Method: "increment",
			Args: value.Object{"delta": value.Int(1)},
		},
		msg.ServiceRequestSent{
			Offset: 2, TraceOffset: 1,
			Service: "LLM", Method: "complete",
			Args: value.Object{},
		},
	})

	raised := requireRaised(t, outputs, msg.FaultNonDeterministic)
	assert.Contains(t, raised.Reason, "still holds")
}

func TestFault_OffsetsNotIncreasing(t *testing.T) {
	execution := New(newCounter)
	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 5, State: value.Int(10)},
		msg.EntityMethodRequestReceived{Offset: 5, Method: "read", Args: value.Object{}},
	})

	raised := requireRaised(t, outputs, msg.FaultContractViolation)
	assert.Equal(t, int64(6), raised.Offset)
	assert.Equal(t, msg.None, raised.TraceOffset)
}

func TestFault_MultipleTopLevelRequests(t *testing.T) {
	execution := New(newCounter)
	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: value.Int(10)},
		msg.EntityMethodRequestReceived{Offset: 1, Method: "read", Args: value.Object{}},
		msg.EntityMethodRequestReceived{Offset: 2, Method: "read", Args: value.Object{}},
	})

	requireRaised(t, outputs, msg.FaultContractViolation)
}

func TestFault_ResponseWithoutMatchingRequest(t *testing.T) {
	execution := New(newCounter)
	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: value.Int(10)},
		msg.EntityMethodRequestReceived{Offset: 1, Method: "read", Args: value.Object{}},
		msg.ServiceResponseReceived{Offset: 2, RequestOffset: 77, Response: value.Null{}},
	})

	requireRaised(t, outputs, msg.FaultLogInconsistent)
}

func TestFault_ResponseShapeMismatch(t *testing.T) {
	execution := New(newNotifier)
	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: value.Int(0)},
		msg.EntityMethodRequestReceived{
			Offset: 1, Method: "notify",
			Args: value.Object{"to": value.String("a"), "body": value.String("b")},
		},
		msg.ServiceRequestSent{
			Offset: 2, TraceOffset: 1,
			Service: "Mailer", Method: "deliver",
			Args: value.Object{"to": value.String("a"), "body": value.String("b")},
		},
		// An entity-method response cannot answer a service request.
		msg.EntityMethodResponseReceived{Offset: 3, RequestOffset: 2, Response: value.Null{}},
	})

	requireRaised(t, outputs, msg.FaultLogInconsistent)
}

func TestFault_RequestPrecedesTrigger(t *testing.T) {
	execution := New(newCounter)
	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: value.Int(10)},
		msg.ServiceRequestSent{
			Offset: 1, TraceOffset: 0,
			Service: "LLM", Method: "complete", Args: value.Object{},
		},
	})

	raised := requireRaised(t, outputs, msg.FaultContractViolation)
	assert.Contains(t, raised.Reason, "precedes the top-level request")
}

func TestFault_TraceOffsetMismatch(t *testing.T) {
	execution := New(newNotifier)
	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: value.Int(0)},
		msg.EntityMethodRequestReceived{
			Offset: 1, Method: "notify",
			Args: value.Object{"to": value.String("a"), "body": value.String("b")},
		},
		msg.ServiceRequestSent{
			Offset: 2, TraceOffset: 99,
			Service: "Mailer", Method: "deliver",
			Args: value.Object{"to": value.String("a"), "body": value.String("b")},
		},
	})

	raised := requireRaised(t, outputs, msg.FaultLogInconsistent)
	assert.Contains(t, raised.Reason, "trace offset")
}

func TestFault_QuotaExceeded(t *testing.T) {
	execution := New(newNotifier, WithMaxInteractions(0))
	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: value.Int(0)},
		msg.EntityMethodRequestReceived{
			Offset: 1, Method: "notify",
			Args: value.Object{"to": value.String("a"), "body": value.String("b")},
		},
	})

	raised := requireRaised(t, outputs, msg.FaultQuotaExceeded)
	assert.Contains(t, raised.Reason, "max interactions")
}

func TestFault_DomainPanicPropagates(t *testing.T) {
	// Non-signal panics are not the engine's to swallow.
	execution := New(newCounter)
	assert.Panics(t, func() {
		execution.Complete([]msg.Message{
			msg.EntityMethodRequestReceived{Offset: 0, Method: "increment", Args: value.Object{}},
		})
	})
}
