package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRevoke_NothingToRevoke(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.dispatch(t, textMessage(ann, "/revoke")))

	reply := h.messenger.lastReply()
	assert.Contains(t, reply.Text, `There is nothing to revoke\!`)
	assert.Empty(t, reply.Keyboard)
}

func TestRevoke_ConfirmRemovesLink(t *testing.T) {
	h := newHarness(t)
	h.link(t, ann, tokenA)

	require.True(t, h.dispatch(t, textMessage(ann, "/revoke")))
	reply := h.messenger.lastReply()
	require.Len(t, reply.Keyboard, 2)
	assert.Equal(t, dataConfirmRevoke, reply.Keyboard[0][0].CallbackData)
	assert.Equal(t, dataCancelRevoke, reply.Keyboard[1][0].CallbackData)

	require.True(t, h.dispatch(t, callback(ann, dataConfirmRevoke, reply.Text)))
	assert.False(t, h.linked(t, ann))
	assert.Len(t, h.messenger.cleared, 1)
	assert.Equal(t, "Link has been revoked.", h.messenger.lastAnswer())
}

func TestRevoke_ConfirmIsIdempotent(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.dispatch(t, callback(ann, dataConfirmRevoke, "")))
	require.True(t, h.dispatch(t, callback(ann, dataConfirmRevoke, "")))
	assert.False(t, h.linked(t, ann))
}

func TestRevoke_Cancel(t *testing.T) {
	h := newHarness(t)
	h.link(t, ann, tokenA)

	require.True(t, h.dispatch(t, callback(ann, dataCancelRevoke, "")))
	assert.True(t, h.linked(t, ann))
	assert.Equal(t, "Revoke link cancelled.", h.messenger.answers[0].text)
	assert.Equal(t, `Revoke link has been cancelled\.`, h.messenger.lastReply().Text)
}
