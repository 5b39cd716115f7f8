// wsprobe connects to the rollover sync stream and prints every event it
// receives. Handy for watching a rollover progress without the mini app.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

func main() {
	addr := flag.String("addr", "localhost:8888", "server address")
	userID := flag.Int64("user", 0, "telegram user id to watch")
	flag.Parse()

	if *userID == 0 {
		log.Fatal("pass -user with a telegram id")
	}

	url := fmt.Sprintf("ws://%s/api/v1/ws/%d", *addr, *userID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, p, err := conn.ReadMessage()
			if err != nil {
				log.Println("read error:", err)
				return
			}

			var ev event
			if err := json.Unmarshal(p, &ev); err != nil {
				log.Printf("Received (raw):\n%s\n", p)
				continue
			}

			pretty, err := json.MarshalIndent(ev, "", "  ")
			if err != nil {
				log.Println("json marshal error:", err)
				continue
			}
			log.Printf("Received:\n%s\n", pretty)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-done:
	case <-interrupt:
		log.Println("closing connection")
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
}
