package replicate

import (
	"sort"
	"sync"

	"github.com/mvelez9/cadena/internal/datastructures"
	"github.com/mvelez9/cadena/internal/utils"
)

// pendingLimit bounds the backlog of writes that failed to reach a
// follower. Past it, the oldest entry is dropped.
const pendingLimit = 256

type pendingWrite struct {
	addr    string
	request map[string]interface{}
}

// Replicator fans applied writes out to registered followers. Delivery
// is best effort: a failed send is queued and retried ahead of the next
// write, with the queue bounded by pendingLimit. A follower that stays
// down will fall behind and should re-join, which resyncs it from the
// leader's full history.
type Replicator struct {
	mu        sync.Mutex
	followers map[string]bool
	pending   *datastructures.Deque[pendingWrite]
}

func NewReplicator() *Replicator {
	return &Replicator{
		followers: make(map[string]bool),
		pending:   datastructures.NewDeque[pendingWrite](pendingLimit),
	}
}

// Register adds a follower address. Re-registering is a no-op, so a
// follower can announce itself again after a restart.
func (r *Replicator) Register(addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.followers[addr] {
		r.followers[addr] = true
		utils.GetLogger().Info("Registered follower: " + addr)
	}
}

// Followers returns the registered follower addresses in sorted order.
func (r *Replicator) Followers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.followersLocked()
}

func (r *Replicator) followersLocked() []string {
	addrs := make([]string, 0, len(r.followers))
	for addr := range r.followers {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// ReplicateToFollowers pushes one applied write to every follower,
// after first retrying whatever is queued from earlier failures.
func (r *Replicator) ReplicateToFollowers(request map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	retries := r.pending.Size()
	for i := 0; i < retries; i++ {
		pw, err := r.pending.PopFront()
		if err != nil {
			break
		}
		r.send(pw.addr, pw.request)
	}

	for _, addr := range r.followersLocked() {
		r.send(addr, request)
	}
}

// send pushes one request to one follower and queues it on failure.
// Callers hold r.mu.
func (r *Replicator) send(addr string, request map[string]interface{}) {
	logger := utils.GetLogger()
	if err := NewReplicationClient(addr).Replicate(request); err != nil {
		logger.Warn("Replication to " + addr + " failed: " + err.Error())
		if r.pending.Full() {
			r.pending.PopFront()
		}
		r.pending.PushBack(pendingWrite{addr: addr, request: request})
		return
	}
	logger.Debug("Replicated to " + addr)
}
