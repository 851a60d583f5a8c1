package network

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/mvelez9/cadena/internal/core"
	"github.com/mvelez9/cadena/internal/replicate"
	"github.com/mvelez9/cadena/internal/utils"
)

type Server struct {
	CommandHandler *core.CommandHandler
	Replicator     *replicate.Replicator
	Port           string

	isLeader   bool
	leaderAddr string
}

// NewServer restores state and wires the server together. A follower
// pulls its state from the leader; everything else replays the local
// binlog.
func NewServer(port string, handler *core.CommandHandler, replicator *replicate.Replicator) (*Server, error) {
	logger := utils.GetLogger()

	config, err := utils.GetConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}
	if handler.Database == nil {
		return nil, fmt.Errorf("database is not initialized")
	}

	if !config.IsLeader && config.LeaderAddr != "" {
		logger.Info("Syncing from leader at " + config.LeaderAddr)
		client := replicate.NewReplicationClient(config.LeaderAddr)
		if err := client.SyncFrom(handler); err != nil {
			return nil, fmt.Errorf("sync from leader failed: %v", err)
		}
	} else {
		if err := handler.Rebuild(); err != nil {
			logger.Warn("Could not replay binlog: " + err.Error())
		} else {
			logger.Info("Restored state from binlog")
		}
	}

	handler.Database.SetDefaultExpiry(config.DefaultExpiry)
	handler.Database.StartCleanup(100 * time.Millisecond)
	logger.Info("TCP server initialized on port " + port)

	return &Server{
		CommandHandler: handler,
		Replicator:     replicator,
		Port:           port,
		isLeader:       config.IsLeader,
		leaderAddr:     config.LeaderAddr,
	}, nil
}

// Start binds the configured port and serves until the process exits.
func (s *Server) Start() {
	logger := utils.GetLogger()

	listener, err := net.Listen("tcp", ":"+s.Port)
	if err != nil {
		logger.Warn("Port " + s.Port + " unavailable. Selecting a random port...")
		listener, err = net.Listen("tcp", ":0")
		if err != nil {
			logger.Error("Error starting server: " + err.Error())
			return
		}
	}
	defer listener.Close()

	s.Serve(listener)
}

// Serve accepts connections on an already-bound listener.
func (s *Server) Serve(listener net.Listener) {
	logger := utils.GetLogger()
	logger.Info("Server is listening on " + listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			logger.Error("Error accepting connection: " + err.Error())
			return
		}
		logger.Debug("Accepted client: " + conn.RemoteAddr().String())
		go s.HandleConnection(conn)
	}
}

// Handle an incoming client connection
func (s *Server) HandleConnection(conn net.Conn) {
	logger := utils.GetLogger()
	defer func() {
		logger.Debug("Client disconnected: " + conn.RemoteAddr().String())
		conn.Close()
	}()

	for {
		buffer := make([]byte, 4096)
		n, err := conn.Read(buffer)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Error("Error reading from client: " + err.Error())
			}
			return
		}

		request, err := utils.DecodeRequest(buffer[:n])
		if err != nil {
			logger.Error("Failed to decode request: " + err.Error())
			s.sendError(conn, "malformed request")
			continue
		}

		command, _ := request["command"].(string)
		command = strings.ToUpper(command)
		replicated, _ := request["replicated"].(bool)

		// A follower does not accept writes of its own; it hands them to
		// the leader and relays the leader's answer. Writes arriving
		// with the replicated mark came FROM the leader and are applied
		// locally.
		if !s.isLeader && s.leaderAddr != "" && core.IsWriteCommand(command) && !replicated {
			logger.Debug("Forwarding " + command + " to leader at " + s.leaderAddr)

			client := replicate.NewReplicationClient(s.leaderAddr)
			response, err := client.ForwardRequest(request)
			if err != nil {
				logger.Error("Forward to leader failed: " + err.Error())
				s.sendError(conn, "failed to forward request to leader")
				continue
			}
			s.sendResponse(conn, response)
			continue
		}

		response, err := s.CommandHandler.HandleCommand(request)
		if err != nil {
			s.sendError(conn, err.Error())
			continue
		}
		s.sendResponse(conn, response)

		if s.isLeader && s.Replicator != nil && core.IsWriteCommand(command) && !replicated {
			s.Replicator.ReplicateToFollowers(request)
		}
	}
}

// sendResponse serializes the response and sends it to the client
func (s *Server) sendResponse(conn net.Conn, response map[string]interface{}) {
	logger := utils.GetLogger()
	data, err := utils.EncodeResponse(response)
	if err != nil {
		logger.Error("Failed to encode response: " + err.Error())
		return
	}
	if _, err := conn.Write(data); err != nil {
		logger.Error("Failed to send response: " + err.Error())
	}
}

// sendError sends an error message to the client
func (s *Server) sendError(conn net.Conn, errorMessage string) {
	s.sendResponse(conn, map[string]interface{}{"status": "ERROR", "message": errorMessage})
}
