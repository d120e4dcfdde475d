package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/trivia-party/internal/protocol"
)

func TestEncode_WireFormat(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgRoundStart, protocol.RoundStartPayload{
		RoundID:    2,
		Picker:     "Alice",
		PickerID:   "p1",
		Categories: []string{"NBA", "Movies", "History"},
	})

	data, err := Encode(msg)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"round_start","payload":{"roundId":2,"picker":"Alice","pickerSid":"p1","categories":["NBA","Movies","History"]}}`,
		string(data))
}

func TestDecode_ParsePayload(t *testing.T) {
	t.Parallel()

	msg, err := Decode([]byte(`{"type":"submit_answer","payload":{"room":"ABC123","answer":2}}`))
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgSubmitAnswer, msg.Type)

	p, err := ParsePayload[protocol.SubmitAnswerPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", p.Room)
	require.NotNil(t, p.Answer)
	assert.Equal(t, 2, *p.Answer)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestParsePayload_Empty(t *testing.T) {
	t.Parallel()

	p, err := ParsePayload[protocol.GetLeaderboardPayload](&protocol.Message{Type: protocol.MsgGetLeaderboard})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Limit)
}

func TestParsePayload_WrongType(t *testing.T) {
	t.Parallel()

	msg := &protocol.Message{Type: protocol.MsgSubmitAnswer, Payload: []byte(`{"answer":"two"}`)}
	_, err := ParsePayload[protocol.SubmitAnswerPayload](msg)
	assert.Error(t, err)
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessage(protocol.ErrCodeRoomNotFound)
	p, err := ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeRoomNotFound, p.Code)
	assert.Equal(t, "Room not found", p.Message)

	msg = NewErrorMessageWithText(protocol.ErrCodeUnknown, "boom")
	p, err = ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, "boom", p.Message)
}
