package availability

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func marshalPayload(t *testing.T, p redisPayload) string {
	t.Helper()
	b, err := json.Marshal(p)
	assert.NoError(t, err)
	return string(b)
}

func TestDecodeMessageSkipsOwnEcho(t *testing.T) {
	r := &RedisPubSub{instanceID: "node-a"}

	own := marshalPayload(t, redisPayload{
		Event:  EventAvailability,
		Data:   json.RawMessage(`{"remaining":3}`),
		Origin: "node-a",
	})
	_, _, ok := r.decodeMessage(own)
	assert.False(t, ok, "a broadcast this instance published is already delivered locally")

	other := marshalPayload(t, redisPayload{
		Event:  EventAvailability,
		Data:   json.RawMessage(`{"remaining":3}`),
		Origin: "node-b",
	})
	event, payload, ok := r.decodeMessage(other)
	assert.True(t, ok)
	assert.Equal(t, EventAvailability, event)
	assert.JSONEq(t, `{"remaining":3}`, string(payload))
}

func TestDecodeMessageAcceptsLegacyPayload(t *testing.T) {
	// Messages published before origin tagging carry no origin field.
	r := &RedisPubSub{instanceID: "node-a"}
	event, _, ok := r.decodeMessage(`{"event":"availability","data":{"remaining":1},"at":1}`)
	assert.True(t, ok)
	assert.Equal(t, "availability", event)
}

func TestDecodeMessageRejectsMalformed(t *testing.T) {
	r := &RedisPubSub{instanceID: "node-a"}
	_, _, ok := r.decodeMessage(`not json`)
	assert.False(t, ok)
}
