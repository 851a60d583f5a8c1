package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mvelez9/cadena/internal/core"
	"github.com/mvelez9/cadena/internal/network"
	"github.com/mvelez9/cadena/internal/persistence"
	"github.com/mvelez9/cadena/internal/replicate"
	"github.com/mvelez9/cadena/internal/utils"
)

func main() {
	portPtr := flag.String("port", "", "Port of server")
	configPtr := flag.String("config", "", "Path to config file (default ~/.cadena/cadena.conf)")
	bootstrapPtr := flag.Bool("bootstrap", false, "Start as replication leader")
	joinPtr := flag.String("join", "", "Join a leader (provide leader address as <ip:port>)")
	advertisePtr := flag.String("advertise", "", "Address this node advertises to the leader (default 127.0.0.1:<port>)")
	debugPtr := flag.Bool("debug", false, "Echo debug logs to stdout")
	flag.Parse()

	if *bootstrapPtr && *joinPtr != "" {
		fmt.Fprintln(os.Stderr, "Cannot use both -bootstrap and -join. Choose only one.")
		os.Exit(1)
	}

	configPath := *configPtr
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error getting home directory:", err)
			os.Exit(1)
		}
		configPath = filepath.Join(homeDir, ".cadena", "cadena.conf")
	}

	// The config is read before the logger exists because it can turn
	// the debug stream on.
	config, err := utils.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading configuration:", err)
		os.Exit(1)
	}

	logger := utils.NewLogger("", *debugPtr || config.Debug)
	logger.Info("Loaded configuration from " + configPath)

	// Flags override the file.
	port := strconv.Itoa(config.Port)
	if *portPtr != "" {
		config.Port, err = strconv.Atoi(*portPtr)
		if err != nil {
			logger.Error("Port must be an integer: " + err.Error())
			return
		}
		port = *portPtr
	}
	if *bootstrapPtr {
		config.IsLeader = true
		config.LeaderAddr = ""
	}
	if *joinPtr != "" {
		config.IsLeader = false
		config.LeaderAddr = *joinPtr
	}
	logger.Info("Port assigned: " + port)

	db := core.NewDatabase()
	handler := core.NewCommandHandler(db)

	if config.Persistence == "binlog" {
		disk, err := persistence.CreateOrReplacePersistence()
		if err != nil {
			logger.Error("Could not open binlog: " + err.Error())
			return
		}
		handler.Persistence = disk
	}

	var replicator *replicate.Replicator
	if config.IsLeader {
		logger.Info("Starting as replication leader")
		replicator = replicate.NewReplicator()
		handler.Replicator = replicator
	}

	server, err := network.NewServer(port, handler, replicator)
	if err != nil {
		logger.Error("Server creation failed: " + err.Error())
		return
	}

	if config.LeaderAddr != "" {
		advertise := *advertisePtr
		if advertise == "" {
			advertise = "127.0.0.1:" + port
		}
		go joinLeader(config.LeaderAddr, advertise)
	}

	server.Start()
}

// joinLeader announces this node to the leader so writes start flowing
// here. Retried a few times because the leader may still be coming up.
func joinLeader(leaderAddr, selfAddr string) {
	logger := utils.GetLogger()
	client := replicate.NewReplicationClient(leaderAddr)

	for attempt := 0; attempt < 5; attempt++ {
		if err := client.Follow(selfAddr); err != nil {
			logger.Warn("Could not register with leader: " + err.Error())
			time.Sleep(time.Second)
			continue
		}
		logger.Info("Registered with leader at " + leaderAddr)
		return
	}
	logger.Error("Giving up registering with leader at " + leaderAddr)
}
