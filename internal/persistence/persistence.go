package persistence

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/mvelez9/cadena/internal/utils"
)

// Singleton persistence instance and mutex for thread safety
var (
	instance   *Persistence
	instanceMu sync.Mutex
)

// Records above this size are treated as corruption rather than read.
const maxRecordSize = 1 << 20

// Persistence is an append-only binlog of write requests. Each record is
// a little-endian int32 payload length followed by the msgpack encoding
// of the request map, so replay rebuilds the exact requests the server
// accepted.
type Persistence struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewPersistence opens (or creates) a binlog at path. An empty path
// selects ~/.cadena/binlog.dat.
func NewPersistence(path string) (*Persistence, error) {
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(homeDir, ".cadena")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "binlog.dat")
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	return &Persistence{file: file, path: path}, nil
}

// CreateOrReplacePersistence returns the existing persistence instance
// or creates one at the default location.
func CreateOrReplacePersistence() (*Persistence, error) {
	instanceMu.Lock()
	defer instanceMu.Unlock()

	if instance != nil {
		return instance, nil
	}

	p, err := NewPersistence("")
	if err != nil {
		return nil, err
	}

	instance = p
	return instance, nil
}

// LogRequest appends one request to the binlog. The length prefix and
// payload go out in a single write so a crash can only tear the final
// record, never interleave two.
func (p *Persistence) LogRequest(request map[string]interface{}) error {
	payload, err := utils.EncodeRequest(request)
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, int32(len(payload))); err != nil {
		return err
	}
	buf.Write(payload)

	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = p.file.Write(buf.Bytes())
	return err
}

// LoadRequests reads the binlog back as request maps, in append order.
// A torn final record (crash mid-append) is dropped silently; corruption
// earlier in the file returns the cleanly read prefix along with an
// error.
func (p *Persistence) LoadRequests() ([]map[string]interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// A separate read handle leaves the append offset alone.
	file, err := os.Open(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	var requests []map[string]interface{}
	lenBuf := make([]byte, 4)

	for {
		if _, err := io.ReadFull(reader, lenBuf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return requests, nil
			}
			return requests, err
		}

		length := int32(binary.LittleEndian.Uint32(lenBuf))
		if length <= 0 || length > maxRecordSize {
			return requests, fmt.Errorf("corrupt binlog record %d: length %d", len(requests), length)
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(reader, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return requests, nil
			}
			return requests, err
		}

		request, err := utils.DecodeRequest(payload)
		if err != nil {
			return requests, fmt.Errorf("corrupt binlog record %d: %v", len(requests), err)
		}
		requests = append(requests, request)
	}
}

// Close releases the underlying file.
func (p *Persistence) Close() error {
	return p.file.Close()
}
