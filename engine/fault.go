package engine

import (
	"fmt"

	"github.com/roach88/reprise/entity"
	"github.com/roach88/reprise/msg"
)

// Fault describes an execution failure with a machine-readable code.
// Faults never escape Complete as Go errors; they are reified as a trailing
// ErrorRaised message. The type exists so the interceptor and driver can
// carry structured failure context to the output builder.
type Fault struct {
	// Code identifies the failure category.
	Code msg.FaultCode

	// Reason is a human-readable description.
	Reason string

	// Domain carries the domain error payload for DOMAIN_FAILURE faults.
	Domain *entity.DomainError
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Code, f.Reason)
}

func faultf(code msg.FaultCode, format string, args ...any) *Fault {
	return &Fault{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// suspendSignal unwinds a method body at a suspension point. The request
// message, if new, has already been appended to the output buffer.
type suspendSignal struct{}

// faultSignal unwinds a method body when replay detects an engine fault.
type faultSignal struct {
	fault *Fault
}
