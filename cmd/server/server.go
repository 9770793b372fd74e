package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/topichub/pubsub/pkg/pubsub"
)

// Gateway exposes an embedded broker over HTTP: a websocket stream per
// subscriber, a publish endpoint, stats and metrics.
type Gateway struct {
	broker *pubsub.Broker
	log    *slog.Logger
}

func NewGateway(broker *pubsub.Broker, log *slog.Logger) *Gateway {
	return &Gateway{broker: broker, log: log}
}

func (g *Gateway) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/subscribe", g.handleSubscribe)
	mux.HandleFunc("POST /publish", g.handlePublish)
	mux.HandleFunc("GET /stats", g.handleStats)
	mux.Handle("GET /metrics", promhttp.HandlerFor(newMetrics(g.broker), promhttp.HandlerOpts{}))
	return mux
}

type publishRequest struct {
	Topic   string `json:"topic"`
	Payload any    `json:"payload"`
}

type publishResponse struct {
	MessageID string    `json:"message_id"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
}

func (g *Gateway) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := g.broker.Publish(req.Topic, req.Payload)
	if err != nil {
		switch {
		case errors.Is(err, pubsub.ErrClosed):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		case errors.Is(err, pubsub.ErrTopicNameEmpty), errors.Is(err, pubsub.ErrNilPayload):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, "publish failed", http.StatusInternalServerError)
		}
		return
	}

	g.log.Debug("published", "topic", req.Topic, "message", msg.ID())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(publishResponse{
		MessageID: msg.ID(),
		Topic:     msg.Topic().Name(),
		Timestamp: msg.Timestamp(),
	})
}

type statsResponse struct {
	Published     int64    `json:"published"`
	Delivered     int64    `json:"delivered"`
	Subscriptions int      `json:"subscriptions"`
	ActiveTopics  []string `json:"active_topics"`
}

func (g *Gateway) handleStats(w http.ResponseWriter, r *http.Request) {
	topics := g.broker.ActiveTopics()
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		names = append(names, t.Name())
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statsResponse{
		Published:     g.broker.PublishedCount(),
		Delivered:     g.broker.DeliveredCount(),
		Subscriptions: g.broker.TotalSubscriptionCount(),
		ActiveTopics:  names,
	})
}

type eventFrame struct {
	MessageID string    `json:"message_id"`
	Topic     string    `json:"topic"`
	Payload   any       `json:"payload"`
	Publisher string    `json:"publisher,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// wsSubscriber bridges broker deliveries to one websocket client. OnMessage
// runs on dispatcher goroutines, so frames go through a buffered channel and
// a single write loop owns the connection.
type wsSubscriber struct {
	id   string
	send chan []byte
	log  *slog.Logger
}

func (s *wsSubscriber) ID() string { return s.id }

func (s *wsSubscriber) OnMessage(msg *pubsub.Message) error {
	frame, err := json.Marshal(eventFrame{
		MessageID: msg.ID(),
		Topic:     msg.Topic().Name(),
		Payload:   msg.Payload(),
		Publisher: msg.PublisherID(),
		Timestamp: msg.Timestamp(),
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	select {
	case s.send <- frame:
		return nil
	default:
		return fmt.Errorf("client %s send buffer full", s.id)
	}
}

func (s *wsSubscriber) OnError(msg *pubsub.Message, err error) {
	s.log.Warn("dropping event for slow client", "client", s.id, "message", msg.ID(), "error", err)
}

func (g *Gateway) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topicName := r.URL.Query().Get("topic")
	if topicName == "" {
		http.Error(w, "missing topic query parameter", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.log.Error("websocket accept failed", "error", err)
		return
	}

	client := &wsSubscriber{
		id:   uuid.NewString(),
		send: make(chan []byte, 256),
		log:  g.log,
	}

	sub, err := g.broker.Subscribe(topicName, client)
	if err != nil {
		_ = conn.Close(websocket.StatusInternalError, err.Error())
		return
	}
	g.log.Info("client subscribed", "client", client.id, "topic", topicName)

	defer func() {
		g.broker.Unsubscribe(sub.ID())
		g.log.Info("client unsubscribed", "client", client.id, "topic", topicName)
	}()

	// The client sends nothing; CloseRead surfaces its disconnect as a
	// cancelled context.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case frame := <-client.send:
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				g.log.Debug("client write failed", "client", client.id, "error", err)
				return
			}
		}
	}
}
