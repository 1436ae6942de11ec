package value

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SubjectID is the reserved identity of the subject placeholder.
// A Ref carrying it denotes "the entity this execution belongs to"
// before that entity is materialized.
const SubjectID = "@subject"

// Ref is an entity identity handle. State snapshots and message arguments
// refer to other entities only by Ref, never by embedded value; this breaks
// reference cycles between entities.
//
// Equality is identity equality: two Refs are equal iff kind and id match.
type Ref struct {
	Kind string `json:"-"`
	ID   string `json:"-"`
}

func (Ref) value() {}

// SubjectRef returns the placeholder handle for the subject of an execution.
func SubjectRef(kind string) Ref {
	return Ref{Kind: kind, ID: SubjectID}
}

// IsSubject reports whether the ref is the subject placeholder.
func (r Ref) IsSubject() bool {
	return r.ID == SubjectID
}

func (r Ref) String() string {
	return r.Kind + "/" + r.ID
}

// MarshalJSON encodes the ref as {"$ref":"Kind/ID"}. The reserved key keeps
// refs distinguishable from plain objects on the wire.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Kind == "" || r.ID == "" {
		return nil, fmt.Errorf("ref requires kind and id, got %q/%q", r.Kind, r.ID)
	}
	if strings.Contains(r.Kind, "/") {
		return nil, fmt.Errorf("ref kind must not contain '/': %q", r.Kind)
	}
	return json.Marshal(map[string]string{"$ref": r.String()})
}

// refFromMap recognizes the {"$ref": "Kind/ID"} encoding inside a decoded
// JSON object. Returns ok=false when the map is a plain object.
func refFromMap(m map[string]any) (Value, bool, error) {
	raw, present := m["$ref"]
	if !present {
		return nil, false, nil
	}
	if len(m) != 1 {
		return nil, true, fmt.Errorf("object with $ref key must carry no other keys")
	}
	s, ok := raw.(string)
	if !ok {
		return nil, true, fmt.Errorf("$ref must be a string, got %T", raw)
	}
	kind, id, found := strings.Cut(s, "/")
	if !found || kind == "" || id == "" {
		return nil, true, fmt.Errorf("malformed $ref %q: want \"Kind/ID\"", s)
	}
	return Ref{Kind: kind, ID: id}, true, nil
}
