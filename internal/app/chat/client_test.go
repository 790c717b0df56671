package chat

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKickClosesQueueAndStagesCloseFrame(t *testing.T) {
	hub, _ := newTestHub(t)
	client := NewClient(hub, nil, "u1")

	client.Kick("Session replaced by a new connection.")

	// The queue is closed, so the write loop will drain and terminate; the
	// kick never touches the connection directly.
	require.ErrorIs(t, client.enqueue([]byte("{}")), errQueueClosed)

	client.sendMu.Lock()
	frame := client.closeFrame
	client.sendMu.Unlock()

	require.GreaterOrEqual(t, len(frame), 2)
	assert.Equal(t, uint16(WsCloseCodeSessionKicked), binary.BigEndian.Uint16(frame[:2]))
	assert.Equal(t, "Session replaced by a new connection.", string(frame[2:]))
}

func TestKickAfterShutdownLeavesPlainClose(t *testing.T) {
	hub, _ := newTestHub(t)
	client := NewClient(hub, nil, "u1")

	client.closeSend()
	client.Kick("too late")

	// The queue already closed normally, so the write loop must still send
	// the plain close it was going to send.
	client.sendMu.Lock()
	defer client.sendMu.Unlock()
	assert.Nil(t, client.closeFrame)
}
