package entity

import (
	"errors"
	"fmt"

	"github.com/roach88/reprise/value"
)

// ErrUnknownMethod is returned by Invoke implementations for method names
// they do not dispatch. The engine reports it as a contract violation, not
// a domain failure.
var ErrUnknownMethod = errors.New("unknown method")

// DomainError is an abnormal termination raised by domain code.
//
// Domain errors cross the engine boundary as message payloads, so they are
// values: a stable name identifying the error type plus named arguments.
// Equality is structural.
type DomainError struct {
	// Name identifies the error type, e.g. "MessageNotReceived".
	Name string `json:"name"`

	// Args carries the error's named fields.
	Args value.Object `json:"args"`
}

// NewDomainError constructs a domain error with named fields.
func NewDomainError(name string, pairs ...value.Pair) *DomainError {
	return &DomainError{Name: name, Args: value.NewObject(pairs...)}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if len(e.Args) == 0 {
		return e.Name
	}
	return fmt.Sprintf("%s %s", e.Name, formatArgs(e.Args))
}

// Equal reports structural equality with another domain error.
func (e *DomainError) Equal(other *DomainError) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.Name == other.Name && value.Equal(e.Args, other.Args)
}

// AsDomainError unwraps err to a *DomainError, if it is one.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func formatArgs(args value.Object) string {
	b, err := value.Marshal(args)
	if err != nil {
		return "{...}"
	}
	return string(b)
}
