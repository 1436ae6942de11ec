// Package entity defines the contract a user-defined domain type must
// satisfy to be driven by the execution engine, and the capability object
// through which its methods reach the outside world.
package entity

import (
	"github.com/roach88/reprise/value"
)

// Caller mediates every external action a method body performs.
//
// Domain methods receive a Caller and route all cross-entity calls, entity
// creations, and service calls through it; reading or writing the entity's
// own fields is direct and never suspends. During replay each call is
// satisfied from the message log; at the first call with no logged
// counterpart the engine records a request message and halts the method.
//
// Method bodies must be deterministic given the same restored state and the
// same sequence of responses: no wall clocks, no randomness, no iteration
// over unordered collections feeding into arguments.
type Caller interface {
	// Self returns the identity handle of the entity being executed,
	// for embedding in outgoing arguments and state snapshots.
	Self() value.Ref

	// Call invokes a method on another entity and returns its response.
	// A non-nil error is a *DomainError raised by the receiver.
	Call(receiver value.Ref, method string, args value.Object) (value.Value, error)

	// Create constructs a new entity of the given kind and returns its
	// identity handle. Construction is deferred to the host.
	Create(kind string, args value.Object) (value.Ref, error)

	// CallService invokes a method on an external service.
	CallService(service, method string, args value.Object) (value.Value, error)
}

// Entity is the capability set a domain type exposes to the engine:
// identity, construction, method dispatch, and state capture/restore.
//
// The engine treats state snapshots as immutable values: Snapshot must not
// retain aliases into mutable fields, and Restore must not alias the given
// state into them.
type Entity interface {
	// Kind returns the stable entity type name, e.g. "User".
	Kind() string

	// Init is the constructor body. It runs when the host asks the engine
	// to materialize a new entity of this kind.
	Init(c Caller, args value.Object) error

	// Invoke dispatches a named method with named arguments. It is the
	// engine's method-reference calling convention: implementations switch
	// on the method name and call the corresponding Go method. Unknown
	// names return ErrUnknownMethod.
	Invoke(c Caller, method string, args value.Object) (value.Value, error)

	// Snapshot produces an opaque state value sufficient to fully restore
	// the entity. Other entities appear in it only as identity refs.
	Snapshot() (value.Value, error)

	// Restore replaces the entity's state with a previously captured
	// snapshot.
	Restore(state value.Value) error
}

// Factory produces a blank, uninitialized entity of one kind.
// The engine restores state or runs Init on the result; the factory itself
// must not perform domain work.
type Factory func() Entity
