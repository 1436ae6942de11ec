// Package engine implements the execution-completion engine.
//
// # Replay-driven execution
//
// Domain methods read as ordinary synchronous code, but the engine cannot
// perform side effects directly. Every interaction with another entity, an
// entity constructor, or an external service goes through the entity.Caller
// capability. When a method reaches an interaction the message log has not
// decided yet, the engine records a request message, halts the method, and
// returns the output log to the host. Once the host appends the response
// message, the next Complete call drives the method past that point.
//
// # Coroutine-free suspension
//
// There is no stack capture. Resumption re-executes the method from the
// last completed state snapshot; the interceptor short-circuits each
// already-decided interaction with its logged response:
//
//	[inputs] → rebuild state → re-invoke method
//	                               ↓ interaction k
//	                  logged pair k exists?
//	                       yes → fingerprints equal? no → NON_DETERMINISTIC
//	                             response present?  no → halt (still pending)
//	                             return logged response, continue
//	                       no  → emit *RequestSent, halt
//
// This trades CPU for simplicity and makes deterministic method bodies a
// hard requirement: given the same restored state and the same responses, a
// method must re-issue exactly the same interactions in the same order.
//
// # Offset discipline
//
// Offsets order every message of one conversation. Input offsets are
// strictly increasing; output offsets continue the same sequence without
// gaps, starting at max(input offset)+1. Every derived message carries the
// trace offset of the top-level request being processed.
//
// # Failure reification
//
// Complete never throws domain or log problems past its boundary. Domain
// failures, log inconsistencies, non-determinism, and contract violations
// all surface as a trailing ErrorRaised message, so the caller's log
// remains the sole source of truth. Panics raised by domain code are not
// recovered; they propagate to the caller.
package engine
