package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) *MockProvider {
	t.Helper()
	provider, ok := NewMockProvider("", "mock-model", nil).(*MockProvider)
	require.True(t, ok)
	return provider
}

func TestMockResponseQueue(t *testing.T) {
	provider := newMock(t)
	provider.SetMockResponse("default")
	provider.SetResponses([]string{"first", "second"}, false)

	for _, want := range []string{"first", "second", "default", "default"} {
		got, err := provider.NextResponse()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMockResponseLoop(t *testing.T) {
	provider := newMock(t)
	provider.SetResponses([]string{"a", "b"}, true)

	for _, want := range []string{"a", "b", "a", "b", "a"} {
		got, err := provider.NextResponse()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestMockErrorSetAndClear(t *testing.T) {
	provider := newMock(t)
	provider.SetMockError("provider down")

	_, err := provider.NextResponse()
	require.Error(t, err)
	assert.EqualError(t, err, "provider down")

	provider.SetMockError("")
	_, err = provider.NextResponse()
	require.NoError(t, err)
}

func TestMockParseResponseServesQueue(t *testing.T) {
	provider := newMock(t)
	provider.SetResponses([]string{"scripted"}, false)

	got, err := provider.ParseResponse([]byte(`{"ignored": true}`))
	require.NoError(t, err)
	assert.Equal(t, "scripted", got)
}

func TestMockPrepareRequest(t *testing.T) {
	provider := newMock(t)
	body, err := provider.PrepareRequest("system text", []string{"user text"}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(body), "system text")
	assert.Contains(t, string(body), "user text")
}
