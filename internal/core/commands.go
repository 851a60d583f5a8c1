package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvelez9/cadena/internal/persistence"
	"github.com/mvelez9/cadena/internal/utils"
)

// CadenaVersion is reported by the VERSION command.
const CadenaVersion = "0.1.0"

// FollowerRegistry is the slice of the replication layer the command
// handler needs: FOLLOW registers a node address for write fan-out.
type FollowerRegistry interface {
	Register(addr string)
}

type CommandHandler struct {
	Database    *Database
	Persistence *persistence.Persistence
	Replicator  FollowerRegistry
}

// Create a new CommandHandler instance
func NewCommandHandler(db *Database) *CommandHandler {
	return &CommandHandler{Database: db}
}

// IsWriteCommand reports whether command mutates state. Only write
// commands are logged to the binlog and forwarded between nodes.
func IsWriteCommand(command string) bool {
	switch strings.ToUpper(command) {
	case "LPUSH", "RPUSH", "LPOP", "RPOP", "LREM", "DEL", "EXPIRE":
		return true
	default:
		return false
	}
}

// HandleCommand processes one request map and returns the response map.
// A returned error means the request itself was bad; the caller turns it
// into an ERROR response.
func (h *CommandHandler) HandleCommand(request map[string]interface{}) (map[string]interface{}, error) {
	return h.apply(request, true)
}

// Rebuild replays the binlog through the normal command path, with
// logging suppressed so replay does not grow the log it reads.
func (h *CommandHandler) Rebuild() error {
	if h.Persistence == nil {
		return nil
	}
	requests, err := h.Persistence.LoadRequests()
	if err != nil {
		return err
	}
	return h.Replay(requests)
}

// Replay applies previously accepted write requests without logging
// them. It is used for binlog recovery and for syncing from a leader.
func (h *CommandHandler) Replay(requests []map[string]interface{}) error {
	for _, request := range requests {
		if _, err := h.apply(request, false); err != nil {
			return fmt.Errorf("replaying %v: %v", request["command"], err)
		}
	}
	return nil
}

// logWrite records a state-changing request. It runs after the change
// has been applied, so the binlog only ever holds operations that
// actually happened; replay never has to guess about rejected requests.
func (h *CommandHandler) logWrite(enabled bool, request map[string]interface{}) error {
	if !enabled || h.Persistence == nil {
		return nil
	}
	if err := h.Persistence.LogRequest(request); err != nil {
		return errors.New("request logging to disk failed: " + err.Error())
	}
	return nil
}

func (h *CommandHandler) apply(request map[string]interface{}, log bool) (map[string]interface{}, error) {
	command, ok := request["command"].(string)
	if !ok {
		return nil, errors.New("invalid or missing 'command' field")
	}
	command = strings.ToUpper(command)

	var response map[string]interface{}

	switch command {
	case "PING":
		response = map[string]interface{}{"status": "OK", "message": "PONG"}

	case "ECHO":
		message, ok := request["message"].(string)
		if !ok {
			return nil, errors.New("ECHO requires a 'message' field")
		}
		response = map[string]interface{}{"status": "OK", "message": message}

	case "VERSION":
		response = map[string]interface{}{"status": "OK", "message": "cadena server " + CadenaVersion}

	case "LPUSH", "RPUSH":
		key, keyOk := request["key"].(string)
		value, valueOk := request["value"].(string)
		if !keyOk || !valueOk {
			return nil, errors.New(command + " requires 'key' and 'value' fields")
		}

		var err error
		if command == "LPUSH" {
			err = h.Database.LPush(key, value)
		} else {
			err = h.Database.RPush(key, value)
		}
		if err != nil {
			return nil, err
		}
		if err := h.logWrite(log, request); err != nil {
			return nil, err
		}
		response = map[string]interface{}{"status": "OK"}

	case "LPOP", "RPOP":
		key, ok := request["key"].(string)
		if !ok {
			return nil, errors.New(command + " requires a 'key' field")
		}

		var value string
		var found bool
		var err error
		if command == "LPOP" {
			value, found, err = h.Database.PopFirst(key)
		} else {
			value, found, err = h.Database.PopLast(key)
		}
		if err != nil {
			return nil, err
		}
		if !found {
			response = map[string]interface{}{"status": "NOT_FOUND"}
			break
		}
		if err := h.logWrite(log, request); err != nil {
			return nil, err
		}
		response = map[string]interface{}{"status": "OK", "value": value}

	case "LREM":
		key, keyOk := request["key"].(string)
		value, valueOk := request["value"].(string)
		if !keyOk || !valueOk {
			return nil, errors.New("LREM requires 'key' and 'value' fields")
		}

		removed, err := h.Database.LRem(key, value)
		if err != nil {
			return nil, err
		}
		if !removed {
			response = map[string]interface{}{"status": "NOT_FOUND"}
			break
		}
		if err := h.logWrite(log, request); err != nil {
			return nil, err
		}
		response = map[string]interface{}{"status": "OK"}

	case "DEL":
		key, ok := request["key"].(string)
		if !ok {
			return nil, errors.New("DEL requires a 'key' field")
		}

		if !h.Database.Del(key) {
			response = map[string]interface{}{"status": "NOT_FOUND"}
			break
		}
		if err := h.logWrite(log, request); err != nil {
			return nil, err
		}
		response = map[string]interface{}{"status": "OK"}

	case "EXPIRE":
		key, ok := request["key"].(string)
		if !ok {
			return nil, errors.New("EXPIRE requires a 'key' field")
		}
		ttlMs, ok := utils.ToInt64(request["exp"])
		if !ok {
			return nil, errors.New("EXPIRE requires an integer 'exp' field")
		}

		set, err := h.Database.Expire(key, ttlMs)
		if err != nil {
			return nil, err
		}
		if !set {
			response = map[string]interface{}{"status": "NOT_FOUND"}
			break
		}
		if err := h.logWrite(log, request); err != nil {
			return nil, err
		}
		response = map[string]interface{}{"status": "OK"}

	case "LLEN":
		key, ok := request["key"].(string)
		if !ok {
			return nil, errors.New("LLEN requires a 'key' field")
		}
		response = map[string]interface{}{"status": "OK", "count": int64(h.Database.LLen(key))}

	case "LFIRST", "LLAST":
		key, ok := request["key"].(string)
		if !ok {
			return nil, errors.New(command + " requires a 'key' field")
		}

		var value string
		var found bool
		if command == "LFIRST" {
			value, found = h.Database.First(key)
		} else {
			value, found = h.Database.Last(key)
		}
		if !found {
			response = map[string]interface{}{"status": "NOT_FOUND"}
			break
		}
		response = map[string]interface{}{"status": "OK", "value": value}

	case "LHAS":
		key, keyOk := request["key"].(string)
		value, valueOk := request["value"].(string)
		if !keyOk || !valueOk {
			return nil, errors.New("LHAS requires 'key' and 'value' fields")
		}
		response = map[string]interface{}{"status": "OK", "found": h.Database.Contains(key, value)}

	case "LRANGE":
		key, ok := request["key"].(string)
		if !ok {
			return nil, errors.New("LRANGE requires a 'key' field")
		}
		reverse, _ := request["reverse"].(bool)

		values := h.Database.Range(key, reverse)
		if values == nil {
			values = []string{}
		}
		response = map[string]interface{}{"status": "OK", "values": values}

	case "KEYS":
		keys := h.Database.Keys()
		if keys == nil {
			keys = []string{}
		}
		response = map[string]interface{}{"status": "OK", "keys": keys}

	case "SYNC":
		commands := []map[string]interface{}{}
		if h.Persistence != nil {
			requests, err := h.Persistence.LoadRequests()
			if err != nil {
				return nil, errors.New("could not read binlog: " + err.Error())
			}
			if requests != nil {
				commands = requests
			}
		}
		response = map[string]interface{}{"status": "OK", "commands": commands}

	case "FOLLOW":
		addr, ok := request["addr"].(string)
		if !ok || addr == "" {
			return nil, errors.New("FOLLOW requires an 'addr' field")
		}
		if h.Replicator == nil {
			return nil, errors.New("replication is not enabled on this node")
		}
		h.Replicator.Register(addr)
		response = map[string]interface{}{"status": "OK"}

	default:
		return nil, errors.New("unknown command: " + command)
	}

	return response, nil
}
