package replicate

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mvelez9/cadena/internal/utils"
)

const requestTimeout = 5 * time.Second

// ReplicationClient speaks the server's own msgpack protocol to another
// node. Followers use it to reach their leader; the leader uses it to
// reach followers. Each call is one dial, one request, one response.
type ReplicationClient struct {
	addr string
}

// NewReplicationClient returns a client for the node at addr.
func NewReplicationClient(addr string) *ReplicationClient {
	return &ReplicationClient{addr: addr}
}

// ForwardRequest sends a client's write to the node and returns the
// node's response verbatim.
func (c *ReplicationClient) ForwardRequest(request map[string]interface{}) (map[string]interface{}, error) {
	return c.roundTrip(request)
}

// Replicate pushes an already-applied write to a follower. The request
// is marked so the follower applies it locally instead of forwarding it
// back to the leader.
func (c *ReplicationClient) Replicate(request map[string]interface{}) error {
	marked := make(map[string]interface{}, len(request)+1)
	for k, v := range request {
		marked[k] = v
	}
	marked["replicated"] = true

	_, err := c.roundTrip(marked)
	return err
}

// Follow announces selfAddr as a follower of the node this client
// points at.
func (c *ReplicationClient) Follow(selfAddr string) error {
	_, err := c.roundTrip(map[string]interface{}{"command": "FOLLOW", "addr": selfAddr})
	return err
}

// SyncFrom pulls the node's accepted write history and replays it into
// the local command layer. Followers call this on startup.
func (c *ReplicationClient) SyncFrom(applier CommandApplier) error {
	response, err := c.roundTrip(map[string]interface{}{"command": "SYNC"})
	if err != nil {
		return err
	}

	if response["commands"] == nil {
		return nil
	}
	raw, ok := response["commands"].([]interface{})
	if !ok {
		return fmt.Errorf("malformed SYNC response: commands is %T", response["commands"])
	}

	requests := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		request, ok := toRequestMap(item)
		if !ok {
			return fmt.Errorf("malformed SYNC entry: %T", item)
		}
		requests = append(requests, request)
	}
	return applier.Replay(requests)
}

// roundTrip dials the node, sends one request and reads one response.
func (c *ReplicationClient) roundTrip(request map[string]interface{}) (map[string]interface{}, error) {
	conn, err := net.DialTimeout("tcp", c.addr, requestTimeout)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(requestTimeout)); err != nil {
		return nil, err
	}

	data, err := utils.EncodeRequest(request)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(data); err != nil {
		return nil, err
	}

	buffer := make([]byte, 64*1024)
	n, err := conn.Read(buffer)
	if err != nil {
		return nil, err
	}
	response, err := utils.DecodeResponse(buffer[:n])
	if err != nil {
		return nil, err
	}

	if status, _ := response["status"].(string); status == "ERROR" {
		message, _ := response["message"].(string)
		return response, errors.New("remote error: " + message)
	}
	return response, nil
}

// toRequestMap normalizes a decoded SYNC entry. Depending on the
// decoder the nested maps come back keyed by string or by interface{}.
func toRequestMap(item interface{}) (map[string]interface{}, bool) {
	switch m := item.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		request := make(map[string]interface{}, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			request[key] = v
		}
		return request, true
	default:
		return nil, false
	}
}
