package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// argParser parses and validates the command and its arguments
func argParser(input string) (map[string]interface{}, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil, fmt.Errorf("no command entered")
	}

	command := strings.ToUpper(parts[0])
	request := map[string]interface{}{
		"command": command,
	}

	switch command {
	case "PING", "VERSION", "KEYS":
		if len(parts) > 1 {
			return nil, fmt.Errorf("%s does not take any arguments", command)
		}

	case "ECHO":
		if len(parts) < 2 {
			return nil, fmt.Errorf("ECHO requires a message")
		}
		request["message"] = strings.Join(parts[1:], " ")

	case "LPUSH", "RPUSH", "LREM", "LHAS":
		if len(parts) < 3 {
			return nil, fmt.Errorf("%s requires a key and a value", command)
		}
		request["key"] = parts[1]
		request["value"] = strings.Join(parts[2:], " ")

	case "LPOP", "RPOP", "LLEN", "LFIRST", "LLAST", "DEL":
		if len(parts) != 2 {
			return nil, fmt.Errorf("%s requires a key", command)
		}
		request["key"] = parts[1]

	case "LRANGE":
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("LRANGE requires a key and optionally 'rev'")
		}
		request["key"] = parts[1]
		if len(parts) == 3 {
			if !strings.EqualFold(parts[2], "rev") {
				return nil, fmt.Errorf("LRANGE direction must be 'rev'")
			}
			request["reverse"] = true
		}

	case "EXPIRE":
		if len(parts) != 3 {
			return nil, fmt.Errorf("EXPIRE requires a key and a ttl in milliseconds")
		}
		ttlMs, err := strconv.Atoi(parts[2])
		if err != nil {
			return nil, fmt.Errorf("ttl must be an integer: %v", err)
		}
		request["key"] = parts[1]
		request["exp"] = int64(ttlMs)

	default:
		return nil, fmt.Errorf("unknown command: %s", command)
	}

	return request, nil
}

// printResponse renders a server response for the terminal
func printResponse(response map[string]interface{}) {
	status, _ := response["status"].(string)
	switch status {
	case "OK":
		if message, ok := response["message"].(string); ok {
			fmt.Println("Server:", message)
			return
		}
		if value, ok := response["value"]; ok {
			fmt.Println("Server:", value)
			return
		}
		if count, ok := response["count"]; ok {
			fmt.Println("Server:", count)
			return
		}
		if found, ok := response["found"].(bool); ok {
			fmt.Println("Server:", found)
			return
		}
		if values, ok := response["values"].([]interface{}); ok {
			fmt.Println("Server:", formatList(values))
			return
		}
		if keys, ok := response["keys"].([]interface{}); ok {
			fmt.Println("Server:", formatList(keys))
			return
		}
		fmt.Println("Server: OK")
	case "NOT_FOUND":
		fmt.Println("Server: (not found)")
	case "ERROR":
		fmt.Println("Server Error:", response["message"])
	default:
		fmt.Println("Unexpected server response:", response)
	}
}

func formatList(values []interface{}) string {
	if len(values) == 0 {
		return "(empty)"
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprint(v))
	}
	return strings.Join(parts, " ")
}

func main() {
	addrPtr := flag.String("addr", "localhost:6380", "Server address")
	flag.Parse()

	conn, err := net.Dial("tcp", *addrPtr)
	if err != nil {
		fmt.Println("Error connecting to server:", err)
		return
	}
	defer conn.Close()

	fmt.Println("Connected to " + *addrPtr + ". Type commands (e.g., PING, RPUSH key value, LRANGE key rev) and press Enter.")
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print(">> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("Error reading input:", err)
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit") {
			return
		}

		request, err := argParser(input)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}

		data, err := msgpack.Marshal(request)
		if err != nil {
			fmt.Println("Error serializing request:", err)
			continue
		}

		if _, err := conn.Write(data); err != nil {
			fmt.Println("Error sending to server:", err)
			return
		}

		response := make([]byte, 64*1024)
		n, err := conn.Read(response)
		if err != nil {
			fmt.Println("Error reading from server:", err)
			return
		}

		var serverResponse map[string]interface{}
		if err := msgpack.Unmarshal(response[:n], &serverResponse); err != nil {
			fmt.Println("Error deserializing response:", err)
			continue
		}

		printResponse(serverResponse)
	}
}
