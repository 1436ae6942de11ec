package msg

import (
	"fmt"
)

// LogError describes a violation of the log's structural invariants.
// The engine reifies it as a trailing ErrorRaised; the CLI reports it
// directly.
type LogError struct {
	Fault  FaultCode
	Reason string
}

func (e *LogError) Error() string {
	return fmt.Sprintf("%s: %s", e.Fault, e.Reason)
}

func logErrorf(fault FaultCode, format string, args ...any) *LogError {
	return &LogError{Fault: fault, Reason: fmt.Sprintf(format, args...)}
}

// ValidateLog checks the static invariants of an input sequence:
//
//  1. Offsets are strictly increasing.
//  2. The first message is a state snapshot or a trigger.
//  3. At most one trigger defines top-level work.
//  4. Every response answers exactly one earlier request of the pairing
//     kind; at most one request is unanswered, and only at the tail.
//  5. Requests are answered in order; the log never contains a response
//     to a request that was never sent.
//
// Dynamic properties (the replayed method actually re-issuing each logged
// request) are checked by the engine during replay.
func ValidateLog(msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	switch msgs[0].MsgKind() {
	case KindEntityStateChanged, KindCreateEntityRequestReceived, KindEntityMethodRequestReceived:
	default:
		return logErrorf(FaultContractViolation,
			"log must begin with a state snapshot or a top-level request, got %s", msgs[0].MsgKind())
	}

	lastOffset := None
	triggers := 0
	requests := make(map[int64]Kind) // unanswered requests: offset -> kind
	requestOrder := make([]int64, 0) // unanswered, in log order

	for i, m := range msgs {
		if m.MsgOffset() <= lastOffset {
			return logErrorf(FaultContractViolation,
				"offset %d at position %d does not increase past %d", m.MsgOffset(), i, lastOffset)
		}
		lastOffset = m.MsgOffset()

		if IsTrigger(m) {
			triggers++
			if triggers > 1 {
				return logErrorf(FaultContractViolation,
					"multiple top-level requests: second at offset %d", m.MsgOffset())
			}
		}

		if IsRequestSent(m) {
			requests[m.MsgOffset()] = m.MsgKind()
			requestOrder = append(requestOrder, m.MsgOffset())
			continue
		}

		if reqOffset, ok := ResponseRequestOffset(m); ok {
			reqKind, exists := requests[reqOffset]
			if !exists {
				return logErrorf(FaultLogInconsistent,
					"response at offset %d references request offset %d, which is absent or already answered",
					m.MsgOffset(), reqOffset)
			}
			if !ResponsePairsWith(m.MsgKind(), reqKind) {
				return logErrorf(FaultLogInconsistent,
					"response %s at offset %d does not pair with request %s at offset %d",
					m.MsgKind(), m.MsgOffset(), reqKind, reqOffset)
			}
			if requestOrder[0] != reqOffset {
				return logErrorf(FaultLogInconsistent,
					"response at offset %d answers request %d out of order; request %d is still pending",
					m.MsgOffset(), reqOffset, requestOrder[0])
			}
			delete(requests, reqOffset)
			requestOrder = requestOrder[1:]
		}
	}

	if len(requestOrder) > 1 {
		return logErrorf(FaultContractViolation,
			"%d unanswered requests; only the tail request may await a response", len(requestOrder))
	}
	if len(requestOrder) == 1 {
		tail := msgs[len(msgs)-1]
		if !IsRequestSent(tail) || tail.MsgOffset() != requestOrder[0] {
			return logErrorf(FaultContractViolation,
				"unanswered request at offset %d is not at the tail of the log", requestOrder[0])
		}
	}

	return nil
}

// MaxOffset returns the largest offset in the sequence, or None when the
// sequence is empty. Output offsets continue from it without gaps.
func MaxOffset(msgs []Message) int64 {
	max := None
	for _, m := range msgs {
		if m.MsgOffset() > max {
			max = m.MsgOffset()
		}
	}
	return max
}
