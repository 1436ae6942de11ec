package msg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reprise/value"
)

func TestRequestFingerprint_IgnoresOffsets(t *testing.T) {
	args := value.Object{"message": value.String("Hello!")}
	a := EntityMethodRequestSent{
		Offset: 2, TraceOffset: 1,
		Receiver: value.Ref{Kind: "Receiver", ID: "r-1"},
		Method:   "reply", Args: args,
	}
	b := EntityMethodRequestSent{
		Offset: 40, TraceOffset: 39,
		Receiver: value.Ref{Kind: "Receiver", ID: "r-1"},
		Method:   "reply", Args: args,
	}

	fpA, err := RequestFingerprint(a)
	require.NoError(t, err)
	fpB, err := RequestFingerprint(b)
	require.NoError(t, err)
	assert.Equal(t, fpA, fpB)
}

func TestRequestFingerprint_SensitiveToTarget(t *testing.T) {
	args := value.Object{}
	base := EntityMethodRequestSent{
		Receiver: value.Ref{Kind: "Article", ID: "a-1"},
		Method:   "add_comment", Args: args,
	}
	otherMethod := EntityMethodRequestSent{
		Receiver: value.Ref{Kind: "Article", ID: "a-1"},
		Method:   "delete", Args: args,
	}
	otherReceiver := EntityMethodRequestSent{
		Receiver: value.Ref{Kind: "Article", ID: "a-2"},
		Method:   "add_comment", Args: args,
	}

	fp := func(m Message) string {
		s, err := RequestFingerprint(m)
		require.NoError(t, err)
		return s
	}

	assert.NotEqual(t, fp(base), fp(otherMethod))
	assert.NotEqual(t, fp(base), fp(otherReceiver))
}

func TestRequestFingerprint_KindsDoNotCollide(t *testing.T) {
	args := value.Object{"name": value.String("Box")}

	create, err := RequestFingerprint(CreateEntityRequestSent{EntityKind: "Product", Args: args})
	require.NoError(t, err)
	service, err := RequestFingerprint(ServiceRequestSent{Service: "Product", Method: "make", Args: args})
	require.NoError(t, err)

	assert.NotEqual(t, create, service)
}

func TestRequestFingerprint_NonRequest(t *testing.T) {
	_, err := RequestFingerprint(EntityStateChanged{Offset: 0, State: value.Int(1)})
	assert.ErrorContains(t, err, "not a request")
}
