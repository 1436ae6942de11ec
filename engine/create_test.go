package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reprise/entity"
	"github.com/roach88/reprise/msg"
	"github.com/roach88/reprise/value"
)

func TestCreate_ConstructorSuspendsAtEntityCreation(t *testing.T) {
	execution := New(newFactory)
	inputs := []msg.Message{
		msg.CreateEntityRequestReceived{
			Offset: 0,
			Args:   value.Object{"product_name": value.String("Box")},
		},
	}

	outputs := execution.Complete(inputs)

	assert.Equal(t, []msg.Message{
		msg.CreateEntityRequestSent{
			Offset: 1, TraceOffset: 0,
			EntityKind: "Product",
			Args:       value.Object{"name": value.String("Box")},
		},
	}, outputs)
	assert.Equal(t, append(inputs, outputs...), execution.Context())

	// Suspended: nothing is processed yet.
	assert.Empty(t, execution.Cleanup())
	assert.Equal(t, append(inputs, outputs...), execution.Context())
}

func TestCreate_ConstructorResumesAfterCreateResponse(t *testing.T) {
	execution := New(newFactory)
	box := value.Ref{Kind: "Product", ID: "prod-1"}
	inputs := []msg.Message{
		msg.CreateEntityRequestReceived{
			Offset: 0,
			Args:   value.Object{"product_name": value.String("Box")},
		},
		msg.CreateEntityRequestSent{
			Offset: 1, TraceOffset: 0,
			EntityKind: "Product",
			Args:       value.Object{"name": value.String("Box")},
		},
		msg.CreateEntityResponseReceived{Offset: 2, RequestOffset: 1, Entity: box},
	}

	outputs := execution.Complete(inputs)

	assert.Equal(t, []msg.Message{
		msg.CreateEntityResponseSent{Offset: 3, RequestOffset: 0},
		msg.EntityStateChanged{Offset: 4, State: value.Array{box}},
	}, outputs)
	assert.Equal(t, []value.Ref{box}, execution.SubjectEntity().(*Factory).products)

	processed := execution.Cleanup()

	assert.Equal(t, append(inputs, msg.CreateEntityResponseSent{Offset: 3, RequestOffset: 0}), processed)
	assert.Equal(t, []msg.Message{
		msg.EntityStateChanged{Offset: 4, State: value.Array{box}},
	}, execution.Context())
}

func TestCreate_MethodSuspendsAtEntityCreation(t *testing.T) {
	execution := New(newFactory)
	box := value.Ref{Kind: "Product", ID: "prod-1"}
	inputs := []msg.Message{
		msg.EntityStateChanged{Offset: 0, State: value.Array{box}},
		msg.EntityMethodRequestReceived{
			Offset: 1, Method: "make",
			Args: value.Object{"product_name": value.String("Pencil")},
		},
	}

	outputs := execution.Complete(inputs)

	assert.Equal(t, []msg.Message{
		msg.CreateEntityRequestSent{
			Offset: 2, TraceOffset: 1,
			EntityKind: "Product",
			Args:       value.Object{"name": value.String("Pencil")},
		},
	}, outputs)

	// The suspended method's partial mutations are not leaked.
	assert.Equal(t, []value.Ref{box}, execution.SubjectEntity().(*Factory).products)
}

func TestCreate_MethodResumesAfterCreateResponse(t *testing.T) {
	execution := New(newFactory)
	box := value.Ref{Kind: "Product", ID: "prod-1"}
	pencil := value.Ref{Kind: "Product", ID: "prod-2"}
	inputs := []msg.Message{
		msg.EntityStateChanged{Offset: 0, State: value.Array{box}},
		msg.EntityMethodRequestReceived{
			Offset: 1, Method: "make",
			Args: value.Object{"product_name": value.String("Pencil")},
		},
		msg.CreateEntityRequestSent{
			Offset: 2, TraceOffset: 1,
			EntityKind: "Product",
			Args:       value.Object{"name": value.String("Pencil")},
		},
		msg.CreateEntityResponseReceived{Offset: 3, RequestOffset: 2, Entity: pencil},
	}

	outputs := execution.Complete(inputs)

	assert.Equal(t, []msg.Message{
		msg.EntityMethodResponseSent{Offset: 4, RequestOffset: 1, Response: pencil},
		msg.EntityStateChanged{Offset: 5, State: value.Array{box, pencil}},
	}, outputs)
	assert.Equal(t, []value.Ref{box, pencil}, execution.SubjectEntity().(*Factory).products)
}

func TestCreate_ConstructorErrorFromCreatedEntity(t *testing.T) {
	execution := New(newFactory)
	brokenProduct := entity.DomainError{
		Name: "BrokenProduct",
		Args: value.Object{
			"product_name": value.String("Box"),
			"reason":       value.String("Bad things happen"),
		},
	}
	inputs := []msg.Message{
		msg.CreateEntityRequestReceived{
			Offset: 0,
			Args:   value.Object{"product_name": value.String("Box")},
		},
		msg.CreateEntityRequestSent{
			Offset: 1, TraceOffset: 0,
			EntityKind: "Product",
			Args:       value.Object{"name": value.String("Box")},
		},
		msg.CreateEntityErrorReceived{Offset: 2, RequestOffset: 1, Error: brokenProduct},
	}

	outputs := execution.Complete(inputs)

	// The factory does not handle BrokenProduct, so the constructor fails
	// with it in lieu of a response, and no snapshot is emitted.
	require.Len(t, outputs, 1)
	raised, ok := outputs[0].(msg.ErrorRaised)
	require.True(t, ok)
	assert.Equal(t, msg.FaultDomainFailure, raised.Fault)
	assert.Equal(t, int64(3), raised.Offset)
	assert.Equal(t, int64(0), raised.TraceOffset)
	require.NotNil(t, raised.Error)
	assert.True(t, raised.Error.Equal(&brokenProduct))

	processed := execution.Cleanup()
	assert.Len(t, processed, 4)
	assert.Empty(t, execution.Context())
}

func TestCreate_MethodErrorFromCreatedEntity(t *testing.T) {
	execution := New(newFactory)
	box := value.Ref{Kind: "Product", ID: "prod-1"}
	brokenProduct := entity.DomainError{
		Name: "BrokenProduct",
		Args: value.Object{"reason": value.String("Bad things happen")},
	}

	outputs := execution.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: value.Array{box}},
		msg.EntityMethodRequestReceived{
			Offset: 1, Method: "make",
			Args: value.Object{"product_name": value.String("Pencil")},
		},
		msg.CreateEntityRequestSent{
			Offset: 2, TraceOffset: 1,
			EntityKind: "Product",
			Args:       value.Object{"name": value.String("Pencil")},
		},
		msg.CreateEntityErrorReceived{Offset: 3, RequestOffset: 2, Error: brokenProduct},
	})

	require.Len(t, outputs, 1)
	raised, ok := outputs[0].(msg.ErrorRaised)
	require.True(t, ok)
	assert.Equal(t, msg.FaultDomainFailure, raised.Fault)
	assert.Equal(t, int64(1), raised.TraceOffset)
	assert.Equal(t, int64(1), raised.RequestOffset)
	require.NotNil(t, raised.Error)
	assert.True(t, raised.Error.Equal(&brokenProduct))
}
