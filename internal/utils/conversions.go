package utils

import (
	"github.com/vmihailenco/msgpack/v5"
)

// EncodeRequest serializes a request map into a byte slice
func EncodeRequest(request map[string]interface{}) ([]byte, error) {
	return msgpack.Marshal(request)
}

// DecodeRequest deserializes a byte slice into a request map
func DecodeRequest(data []byte) (map[string]interface{}, error) {
	var request map[string]interface{}
	err := msgpack.Unmarshal(data, &request)
	return request, err
}

// EncodeResponse serializes a response map into a byte slice
func EncodeResponse(response map[string]interface{}) ([]byte, error) {
	return msgpack.Marshal(response)
}

// DecodeResponse deserializes a byte slice into a response map
func DecodeResponse(data []byte) (map[string]interface{}, error) {
	var response map[string]interface{}
	err := msgpack.Unmarshal(data, &response)
	return response, err
}

// ToInt64 normalizes the numeric types msgpack may hand back for an
// integer field. It reports false for anything non-numeric.
func ToInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case float32:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
