package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func newRegistered(t *testing.T, h *Hub) *Connection {
	t.Helper()
	conn := h.NewConnection(nil)
	h.Register(conn)
	return conn
}

func recv(t *testing.T, conn *Connection) []byte {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		require.True(t, ok, "send channel closed")
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func assertSilent(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case data, ok := <-conn.Send:
		if ok {
			t.Fatalf("unexpected frame: %s", data)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestJoinLeaveMembership(t *testing.T) {
	h := startHub(t)
	a := newRegistered(t, h)
	b := newRegistered(t, h)

	assert.True(t, h.Join(a, "c1", "anon-a"))
	assert.False(t, h.Join(a, "c1", "anon-a2"))
	assert.True(t, h.Join(b, "c1", "anon-b"))
	assert.True(t, h.Join(b, "c2", "anon-b"))

	assert.ElementsMatch(t, []string{a.ID, b.ID}, h.MembersOf("c1"))
	assert.Equal(t, 2, h.MemberCount("c1"))
	assert.Equal(t, map[string]string{"c1": "anon-b", "c2": "anon-b"}, h.CirclesOf(b))
	assert.Equal(t, 2, h.GetCircleCount())

	pseudonym, ok := h.Leave(a, "c1")
	assert.True(t, ok)
	assert.Equal(t, "anon-a2", pseudonym)

	_, ok = h.Leave(a, "c1")
	assert.False(t, ok)
	assert.Equal(t, []string{b.ID}, h.MembersOf("c1"))
	assert.Empty(t, h.MembersOf("unknown"))
}

func TestBroadcastReachesEveryMember(t *testing.T) {
	h := startHub(t)
	a := newRegistered(t, h)
	b := newRegistered(t, h)
	outsider := newRegistered(t, h)
	h.Join(a, "c1", "a")
	h.Join(b, "c1", "b")

	require.NoError(t, h.BroadcastJSON("c1", map[string]string{"type": "ping"}))

	for _, conn := range []*Connection{a, b} {
		var got map[string]string
		require.NoError(t, json.Unmarshal(recv(t, conn), &got))
		assert.Equal(t, "ping", got["type"])
	}
	assertSilent(t, outsider)
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	h := startHub(t)
	a := newRegistered(t, h)
	b := newRegistered(t, h)
	h.Join(a, "c1", "a")
	h.Join(b, "c1", "b")

	h.BroadcastExcept("c1", a.ID, []byte("typing"))

	assert.Equal(t, []byte("typing"), recv(t, b))
	assertSilent(t, a)
}

func TestBroadcastPreservesOrder(t *testing.T) {
	h := startHub(t)
	a := newRegistered(t, h)
	h.Join(a, "c1", "a")

	for i := 0; i < 100; i++ {
		h.Broadcast("c1", []byte{byte(i)})
	}
	for i := 0; i < 100; i++ {
		assert.Equal(t, []byte{byte(i)}, recv(t, a))
	}
}

func TestBroadcastRecipientsFixedAtCallTime(t *testing.T) {
	h := startHub(t)
	a := newRegistered(t, h)
	b := newRegistered(t, h)
	late := newRegistered(t, h)
	h.Join(a, "c1", "a")
	h.Join(b, "c1", "b")

	for i := 0; i < 50; i++ {
		h.Broadcast("c1", []byte{byte(i)})
	}
	_, ok := h.Leave(a, "c1")
	require.True(t, ok)
	h.Join(late, "c1", "late")

	for i := 0; i < 50; i++ {
		assert.Equal(t, []byte{byte(i)}, recv(t, a))
		assert.Equal(t, []byte{byte(i)}, recv(t, b))
	}
	assertSilent(t, late)
}

func TestJoinThenLeaveKeepsOwnJoinEvent(t *testing.T) {
	h := startHub(t)
	a := newRegistered(t, h)

	h.Join(a, "c1", "a")
	h.Broadcast("c1", []byte("member-joined"))
	h.Leave(a, "c1")

	assert.Equal(t, []byte("member-joined"), recv(t, a))
}

func TestAdmitSerializesCapacityChecks(t *testing.T) {
	h := startHub(t)
	errFull := errors.New("circle full")
	capacity := func(live int) error {
		if live >= 1 {
			return errFull
		}
		return nil
	}

	conns := make([]*Connection, 10)
	for i := range conns {
		conns[i] = newRegistered(t, h)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, denied := 0, 0
	for _, conn := range conns {
		wg.Add(1)
		go func(conn *Connection) {
			defer wg.Done()
			ok, err := h.Admit(conn, "c1", conn.ID, capacity)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, errFull)
				denied++
			} else if ok {
				admitted++
			}
		}(conn)
	}
	wg.Wait()

	assert.Equal(t, 1, admitted)
	assert.Equal(t, 9, denied)
	assert.Equal(t, 1, h.MemberCount("c1"))
	assert.Empty(t, h.gates)
}

func TestUnregisterLeavesAllCirclesSilently(t *testing.T) {
	h := startHub(t)
	a := newRegistered(t, h)
	b := newRegistered(t, h)
	h.Join(a, "c1", "a")
	h.Join(a, "c2", "a")
	h.Join(b, "c1", "b")

	h.Unregister(a)

	assert.Eventually(t, func() bool {
		return h.MemberCount("c1") == 1 && h.MemberCount("c2") == 0
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return h.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	_, ok := <-a.Send
	assert.False(t, ok, "send channel should be closed")
	assertSilent(t, b)

	assert.ErrorIs(t, h.SendToConnection(a, []byte("x")), ErrConnectionClosed)
	assert.False(t, h.Join(a, "c3", "a"))

	// a second unregister is a no-op
	h.Unregister(a)
}

func TestSendToConnectionBufferFull(t *testing.T) {
	h := startHub(t)
	a := newRegistered(t, h)

	for i := 0; i < SendBufferSize; i++ {
		require.NoError(t, h.SendToConnection(a, []byte("x")))
	}
	assert.ErrorIs(t, h.SendToConnection(a, []byte("x")), ErrBufferFull)
}

func TestFullBufferDropsConnectionOnBroadcast(t *testing.T) {
	h := startHub(t)
	slow := newRegistered(t, h)
	h.Join(slow, "c1", "slow")

	for i := 0; i < SendBufferSize; i++ {
		require.NoError(t, h.SendToConnection(slow, []byte("x")))
	}
	h.Broadcast("c1", []byte("overflow"))

	assert.Eventually(t, func() bool { return h.MemberCount("c1") == 0 }, time.Second, 5*time.Millisecond)
}

func TestRunClosesConnectionsOnShutdown(t *testing.T) {
	h := NewHub(zap.NewNop(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	a := h.NewConnection(nil)
	h.Register(a)
	h.Join(a, "c1", "a")
	cancel()
	<-h.done

	_, ok := <-a.Send
	assert.False(t, ok)

	// calls after shutdown return instead of blocking
	h.Register(h.NewConnection(nil))
	h.Broadcast("c1", []byte("late"))
}
