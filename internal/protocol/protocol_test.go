package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageEncoding(t *testing.T) {
	data, err := json.Marshal(Message{
		Type:    TypeState,
		Payload: StatePayload{Running: true, Hotkeys: 2},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"state","payload":{"running":true,"hotkeys":2,"hotstrings":0}}`, string(data))

	data, err = json.Marshal(Message{Type: TypeFired})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"fired"}`, string(data))
}
