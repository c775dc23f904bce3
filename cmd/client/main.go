package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

var addr = flag.String("addr", "localhost:8000", "http service address")

type inbound struct {
	Event   string `json:"event"`
	RoomID  string `json:"room_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	Message string `json:"message,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

type outbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func main() {
	flag.Parse()

	username := getUsername()
	conn := connectWebSocket()
	defer conn.Close()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	done := make(chan struct{})
	go readEvents(conn, done)

	fmt.Println("Commands: /join <room>, /leave <room>, /history <room> [limit], anything else is sent to your room.")
	writeEvents(conn, username, interrupt, done)
}

func getUsername() string {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("Enter your username: ")
	scanner.Scan()
	return scanner.Text()
}

func connectWebSocket() *websocket.Conn {
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	log.Println("Connected to WebSocket server.")
	return conn
}

func readEvents(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		var evt outbound
		if err := conn.ReadJSON(&evt); err != nil {
			log.Printf("Error reading event: %v", err)
			return
		}
		printEvent(evt)
	}
}

func printEvent(evt outbound) {
	switch evt.Event {
	case "connection_established":
		var data struct {
			Message string `json:"message"`
			SID     string `json:"sid"`
		}
		json.Unmarshal(evt.Data, &data)
		fmt.Printf("\n* %s (sid=%s)\n", data.Message, data.SID)
	case "user_joined", "user_left":
		var data struct {
			Message   string `json:"message"`
			Timestamp string `json:"timestamp"`
		}
		json.Unmarshal(evt.Data, &data)
		fmt.Printf("\n* [%s] %s\n", data.Timestamp, data.Message)
	case "new_message":
		var data struct {
			UserID    string `json:"user_id"`
			Message   string `json:"message"`
			Timestamp string `json:"timestamp"`
		}
		json.Unmarshal(evt.Data, &data)
		fmt.Printf("\n[%s] %s: %s\n", data.Timestamp, data.UserID, data.Message)
	case "room_messages":
		var data struct {
			RoomID   string `json:"room_id"`
			Total    int    `json:"total"`
			Messages []struct {
				UserID    string `json:"user_id"`
				Message   string `json:"message"`
				Timestamp string `json:"timestamp"`
			} `json:"messages"`
		}
		json.Unmarshal(evt.Data, &data)
		fmt.Printf("\n* history of %s (%d total):\n", data.RoomID, data.Total)
		for _, m := range data.Messages {
			fmt.Printf("  [%s] %s: %s\n", m.Timestamp, m.UserID, m.Message)
		}
	case "error":
		var data struct {
			Message string `json:"message"`
		}
		json.Unmarshal(evt.Data, &data)
		fmt.Printf("\n! %s\n", data.Message)
	default:
		fmt.Printf("\n? %s: %s\n", evt.Event, string(evt.Data))
	}
}

func writeEvents(conn *websocket.Conn, username string, interrupt chan os.Signal, done chan struct{}) {
	scanner := bufio.NewScanner(os.Stdin)
	currentRoom := ""

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection...")
			err := conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Printf("Error during close: %v", err)
			}
			return
		default:
			if !scanner.Scan() {
				return
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			var msg inbound
			switch {
			case strings.HasPrefix(line, "/join "):
				currentRoom = strings.TrimSpace(strings.TrimPrefix(line, "/join "))
				msg = inbound{Event: "join_room", RoomID: currentRoom, UserID: username}
			case strings.HasPrefix(line, "/leave "):
				room := strings.TrimSpace(strings.TrimPrefix(line, "/leave "))
				msg = inbound{Event: "leave_room", RoomID: room}
				if room == currentRoom {
					currentRoom = ""
				}
			case strings.HasPrefix(line, "/history "):
				fields := strings.Fields(strings.TrimPrefix(line, "/history "))
				msg = inbound{Event: "get_room_messages"}
				if len(fields) > 0 {
					msg.RoomID = fields[0]
				}
				if len(fields) > 1 {
					if limit, err := strconv.Atoi(fields[1]); err == nil {
						msg.Limit = limit
					}
				}
			default:
				msg = inbound{Event: "send_message", RoomID: currentRoom, Message: line}
			}

			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("Error sending event: %v", err)
				return
			}
		}
	}
}
