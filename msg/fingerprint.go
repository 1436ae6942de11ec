package msg

import (
	"fmt"

	"github.com/roach88/reprise/value"
)

// RequestFingerprint computes the content-addressed identity of an outgoing
// request, ignoring offsets. Replay matches an interaction the method
// re-issues against a logged *RequestSent iff their fingerprints are equal:
// same kind, same target, same method, same arguments.
func RequestFingerprint(m Message) (string, error) {
	switch r := m.(type) {
	case EntityMethodRequestSent:
		return value.Fingerprint(value.DomainEntityMethod, value.Object{
			"receiver": r.Receiver,
			"method":   value.String(r.Method),
			"args":     r.Args,
		})
	case CreateEntityRequestSent:
		return value.Fingerprint(value.DomainCreateEntity, value.Object{
			"entity_kind": value.String(r.EntityKind),
			"args":        r.Args,
		})
	case ServiceRequestSent:
		return value.Fingerprint(value.DomainService, value.Object{
			"service": value.String(r.Service),
			"method":  value.String(r.Method),
			"args":    r.Args,
		})
	}
	return "", fmt.Errorf("request fingerprint: %s is not a request", m.MsgKind())
}
