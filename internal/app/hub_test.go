package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/Parley/internal/core"
	"github.com/dkeye/Parley/internal/domain"
)

type recordConn struct {
	mu     sync.Mutex
	frames []core.Frame
	fail   bool
	closed bool
}

func (c *recordConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("send buffer full")
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recordConn) setFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

func (c *recordConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recordConn) messages(t *testing.T) []domain.Message {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, 0, len(c.frames))
	for _, f := range c.frames {
		var m domain.Message
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func newTestHub() *Hub {
	return NewHub(core.NewRegistry(), DisconnectPolicy{})
}

func TestHub_OnJoin_AnnouncesToEveryoneIncludingJoiner(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	alice := &recordConn{}
	_, err := hub.OnJoin("Alice", alice)
	req.NoError(err)

	// The joiner receives its own join confirmation in the same stream.
	got := alice.messages(t)
	req.Len(got, 1)
	req.Equal(domain.MessageSystem, got[0].Type)
	req.Empty(got[0].Username)
	req.Equal("Alice has joined the chat", got[0].Content)

	bob := &recordConn{}
	_, err = hub.OnJoin("Bob", bob)
	req.NoError(err)

	req.Equal("Bob has joined the chat", alice.messages(t)[1].Content)
	req.Equal("Bob has joined the chat", bob.messages(t)[0].Content)
}

func TestHub_OnJoin_NameTakenLeavesExistingUntouched(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	alice := &recordConn{}
	_, err := hub.OnJoin("Alice", alice)
	req.NoError(err)
	before := len(alice.messages(t))

	impostor := &recordConn{}
	sess, err := hub.OnJoin("Alice", impostor)
	req.ErrorIs(err, core.ErrNameTaken)
	req.Nil(sess)

	// No notification of the attempt reaches anyone.
	req.Len(alice.messages(t), before)
	req.Empty(impostor.messages(t))
	req.Equal(1, hub.Registry.Count())
}

func TestHub_OnJoin_RejectsInvalidNames(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	_, err := hub.OnJoin("", &recordConn{})
	req.ErrorIs(err, domain.ErrNameEmpty)

	long := make([]byte, domain.MaxNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = hub.OnJoin(string(long), &recordConn{})
	req.ErrorIs(err, domain.ErrNameTooLong)

	req.Equal(0, hub.Registry.Count())
}

func TestHub_OnMessage_RelayedToAllIncludingSenderInOrder(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	alice := &recordConn{}
	bob := &recordConn{}
	aliceSess, err := hub.OnJoin("Alice", alice)
	req.NoError(err)
	_, err = hub.OnJoin("Bob", bob)
	req.NoError(err)

	req.NoError(hub.OnMessage(aliceSess, []byte(`{"message":"hi"}`)))
	req.NoError(hub.OnMessage(aliceSess, []byte(`{"message":"how are you"}`)))

	for _, conn := range []*recordConn{alice, bob} {
		msgs := conn.messages(t)
		var chats []domain.Message
		for _, m := range msgs {
			if m.Type == domain.MessageChat {
				chats = append(chats, m)
			}
		}
		req.Len(chats, 2)
		req.Equal(domain.Name("Alice"), chats[0].Username)
		req.Equal("hi", chats[0].Content)
		req.Equal("how are you", chats[1].Content)
	}
}

func TestHub_OnMessage_DropsMalformedAndBlankPayloads(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	alice := &recordConn{}
	bob := &recordConn{}
	aliceSess, err := hub.OnJoin("Alice", alice)
	req.NoError(err)
	_, err = hub.OnJoin("Bob", bob)
	req.NoError(err)
	before := len(bob.messages(t))

	req.ErrorIs(hub.OnMessage(aliceSess, []byte(`not json`)), ErrInvalidPayload)
	req.ErrorIs(hub.OnMessage(aliceSess, []byte(`{"message":"   "}`)), ErrEmptyMessage)
	req.ErrorIs(hub.OnMessage(aliceSess, []byte(`{}`)), ErrEmptyMessage)

	// Nothing was broadcast and the sender is still registered.
	req.Len(bob.messages(t), before)
	_, ok := hub.Registry.Lookup("Alice")
	req.True(ok)
}

func TestHub_OnLeave_AnnouncesToRemainingOnly(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	alice := &recordConn{}
	bob := &recordConn{}
	_, err := hub.OnJoin("Alice", alice)
	req.NoError(err)
	bobSess, err := hub.OnJoin("Bob", bob)
	req.NoError(err)
	bobBefore := len(bob.messages(t))

	hub.OnLeave(bobSess)

	msgs := alice.messages(t)
	req.Equal("Bob has left the chat", msgs[len(msgs)-1].Content)
	req.Equal(domain.MessageSystem, msgs[len(msgs)-1].Type)

	// The departing participant receives nothing further, and a duplicate
	// teardown trigger produces no second notice.
	req.Len(bob.messages(t), bobBefore)
	aliceBefore := len(alice.messages(t))
	hub.OnLeave(bobSess)
	req.Len(alice.messages(t), aliceBefore)
	req.Equal(1, hub.Registry.Count())
}

func TestHub_Backpressure_DisconnectsSlowParticipant(t *testing.T) {
	req := require.New(t)
	hub := newTestHub()

	alice := &recordConn{}
	bob := &recordConn{}
	slow := &recordConn{}

	aliceSess, err := hub.OnJoin("Alice", alice)
	req.NoError(err)
	_, err = hub.OnJoin("Bob", bob)
	req.NoError(err)
	_, err = hub.OnJoin("Slow", slow)
	req.NoError(err)

	// The buffer fills up after the join; the next fan-out detects it.
	slow.setFail(true)

	req.NoError(hub.OnMessage(aliceSess, []byte(`{"message":"hi"}`)))

	// The failed delivery never interrupts the rest of the fan-out.
	bobMsgs := bob.messages(t)
	req.Equal("hi", bobMsgs[len(bobMsgs)-2].Content)

	// The slow participant was closed, removed, and its leave announced.
	req.True(slow.closed)
	_, ok := hub.Registry.Lookup("Slow")
	req.False(ok)
	req.Equal("Slow has left the chat", bobMsgs[len(bobMsgs)-1].Content)
}
