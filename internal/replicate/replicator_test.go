package replicate

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvelez9/cadena/internal/datastructures"
	"github.com/mvelez9/cadena/internal/utils"
)

func initTestLogger(t *testing.T) {
	t.Helper()
	utils.NewLogger(filepath.Join(t.TempDir(), "cadena.log"), false)
}

// fakeNode accepts connections, records every request it receives and
// answers each with a fixed response.
type fakeNode struct {
	listener net.Listener
	requests chan map[string]interface{}
	response map[string]interface{}
}

func newFakeNode(t *testing.T, response map[string]interface{}) *fakeNode {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	if response == nil {
		response = map[string]interface{}{"status": "OK"}
	}
	f := &fakeNode{
		listener: listener,
		requests: make(chan map[string]interface{}, 16),
		response: response,
	}
	go f.serve()
	t.Cleanup(func() { listener.Close() })
	return f
}

func (f *fakeNode) serve() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			buffer := make([]byte, 64*1024)
			n, err := conn.Read(buffer)
			if err != nil {
				return
			}
			request, err := utils.DecodeRequest(buffer[:n])
			if err != nil {
				return
			}
			f.requests <- request
			data, err := utils.EncodeResponse(f.response)
			if err != nil {
				return
			}
			conn.Write(data)
		}(conn)
	}
}

func (f *fakeNode) addr() string {
	return f.listener.Addr().String()
}

func (f *fakeNode) received(t *testing.T) map[string]interface{} {
	t.Helper()
	select {
	case request := <-f.requests:
		return request
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a request")
		return nil
	}
}

type fakeApplier struct {
	replayed []map[string]interface{}
}

func (f *fakeApplier) Replay(requests []map[string]interface{}) error {
	f.replayed = append(f.replayed, requests...)
	return nil
}

func TestReplicateToFollowersDelivers(t *testing.T) {
	initTestLogger(t)
	f1 := newFakeNode(t, nil)
	f2 := newFakeNode(t, nil)

	r := NewReplicator()
	r.Register(f1.addr())
	r.Register(f2.addr())

	r.ReplicateToFollowers(map[string]interface{}{"command": "RPUSH", "key": "jobs", "value": "a"})

	for _, f := range []*fakeNode{f1, f2} {
		request := f.received(t)
		assert.Equal(t, "RPUSH", request["command"])
		assert.Equal(t, "a", request["value"])
		assert.Equal(t, true, request["replicated"], "fanned-out writes must carry the replicated mark")
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	initTestLogger(t)

	r := NewReplicator()
	r.Register("127.0.0.1:7001")
	r.Register("127.0.0.1:7001")
	r.Register("127.0.0.1:7000")

	assert.Equal(t, []string{"127.0.0.1:7000", "127.0.0.1:7001"}, r.Followers())
}

func TestFailedSendIsQueuedAndRetried(t *testing.T) {
	initTestLogger(t)

	// Reserve an address, then close it so the first send fails fast.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	r := NewReplicator()
	r.Register(addr)

	r.ReplicateToFollowers(map[string]interface{}{"command": "RPUSH", "key": "jobs", "value": "one"})
	assert.Equal(t, 1, r.pending.Size(), "the undeliverable write should be queued")

	// Bring the follower up on the reserved address; the queued write
	// must arrive before the new one.
	listener, err = net.Listen("tcp", addr)
	require.NoError(t, err)
	f := &fakeNode{
		listener: listener,
		requests: make(chan map[string]interface{}, 16),
		response: map[string]interface{}{"status": "OK"},
	}
	go f.serve()
	t.Cleanup(func() { listener.Close() })

	r.ReplicateToFollowers(map[string]interface{}{"command": "RPUSH", "key": "jobs", "value": "two"})

	assert.Equal(t, "one", f.received(t)["value"])
	assert.Equal(t, "two", f.received(t)["value"])
	assert.Equal(t, 0, r.pending.Size())
}

func TestPendingOverflowDropsOldest(t *testing.T) {
	initTestLogger(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	r := &Replicator{
		followers: map[string]bool{addr: true},
		pending:   datastructures.NewDeque[pendingWrite](2),
	}

	for _, value := range []string{"one", "two", "three"} {
		r.ReplicateToFollowers(map[string]interface{}{"command": "RPUSH", "key": "jobs", "value": value})
	}

	require.Equal(t, 2, r.pending.Size())
	front, err := r.pending.PopFront()
	require.NoError(t, err)
	assert.Equal(t, "two", front.request["value"], "the oldest backlog entry should have been dropped")
}

func TestForwardRequestReturnsResponse(t *testing.T) {
	initTestLogger(t)
	leader := newFakeNode(t, map[string]interface{}{"status": "OK", "value": "forwarded"})

	client := NewReplicationClient(leader.addr())
	response, err := client.ForwardRequest(map[string]interface{}{"command": "LPUSH", "key": "jobs", "value": "a"})
	require.NoError(t, err)

	assert.Equal(t, "forwarded", response["value"])
	request := leader.received(t)
	assert.Equal(t, "LPUSH", request["command"])
	assert.Nil(t, request["replicated"], "forwarded writes are not marked replicated")
}

func TestRemoteErrorSurfaces(t *testing.T) {
	initTestLogger(t)
	node := newFakeNode(t, map[string]interface{}{"status": "ERROR", "message": "boom"})

	_, err := NewReplicationClient(node.addr()).ForwardRequest(map[string]interface{}{"command": "PING"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestFollowAnnouncesAddress(t *testing.T) {
	initTestLogger(t)
	leader := newFakeNode(t, nil)

	require.NoError(t, NewReplicationClient(leader.addr()).Follow("127.0.0.1:9999"))

	request := leader.received(t)
	assert.Equal(t, "FOLLOW", request["command"])
	assert.Equal(t, "127.0.0.1:9999", request["addr"])
}

func TestSyncFromReplaysHistory(t *testing.T) {
	initTestLogger(t)
	leader := newFakeNode(t, map[string]interface{}{
		"status": "OK",
		"commands": []map[string]interface{}{
			{"command": "RPUSH", "key": "jobs", "value": "a"},
			{"command": "RPUSH", "key": "jobs", "value": "b"},
		},
	})

	applier := &fakeApplier{}
	require.NoError(t, NewReplicationClient(leader.addr()).SyncFrom(applier))

	require.Len(t, applier.replayed, 2)
	assert.Equal(t, "a", applier.replayed[0]["value"])
	assert.Equal(t, "b", applier.replayed[1]["value"])
}

func TestSyncFromEmptyHistory(t *testing.T) {
	initTestLogger(t)
	leader := newFakeNode(t, map[string]interface{}{"status": "OK", "commands": []map[string]interface{}{}})

	applier := &fakeApplier{}
	require.NoError(t, NewReplicationClient(leader.addr()).SyncFrom(applier))
	assert.Empty(t, applier.replayed)
}
