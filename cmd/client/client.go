package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
)

// runPublish posts one message and returns.
func runPublish(addr, topic, msg string) {
	body, _ := json.Marshal(map[string]any{"topic": topic, "payload": msg})
	resp, err := http.Post("http://"+addr+"/publish", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("publish error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		log.Fatalf("publish rejected: %s: %s", resp.Status, out)
	}
	fmt.Printf("-> published %q to %q\n", msg, topic)
}

// runSubscribe opens the websocket stream and prints events until the
// context is cancelled.
func runSubscribe(ctx context.Context, addr, topic string) {
	u := "ws://" + addr + "/ws/subscribe?topic=" + url.QueryEscape(topic)
	conn, _, err := websocket.Dial(ctx, u, nil)
	if err != nil {
		log.Fatalf("subscribe error: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	log.Printf("subscribed to %q", topic)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("stream closed: %v", err)
			return
		}
		var evt struct {
			Topic   string `json:"topic"`
			Payload any    `json:"payload"`
		}
		if err := json.Unmarshal(data, &evt); err != nil {
			log.Printf("bad frame: %v", err)
			continue
		}
		fmt.Printf("<- event on %q: %v\n", evt.Topic, evt.Payload)
	}
}
