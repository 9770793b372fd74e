package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topichub/pubsub/pkg/pubsub"
)

func newTestGateway(t *testing.T) (*pubsub.Broker, *httptest.Server) {
	t.Helper()
	broker := pubsub.New(pubsub.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	t.Cleanup(broker.ShutdownNow)

	gw := NewGateway(broker, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(gw.Routes())
	t.Cleanup(ts.Close)
	return broker, ts
}

func postPublish(t *testing.T, ts *httptest.Server, topic string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(publishRequest{Topic: topic, Payload: payload})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/publish", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestPublishAndStats(t *testing.T) {
	broker, ts := newTestGateway(t)

	resp := postPublish(t, ts, "orders", "A")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pub publishResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pub))
	assert.NotEmpty(t, pub.MessageID)
	assert.Equal(t, "orders", pub.Topic)

	statsResp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer statsResp.Body.Close()
	require.Equal(t, http.StatusOK, statsResp.StatusCode)

	var stats statsResponse
	require.NoError(t, json.NewDecoder(statsResp.Body).Decode(&stats))
	assert.Equal(t, int64(1), stats.Published)
	assert.Equal(t, int64(0), stats.Delivered)
	assert.Equal(t, int64(1), broker.PublishedCount())
}

func TestPublishValidation(t *testing.T) {
	_, ts := newTestGateway(t)

	resp := postPublish(t, ts, "", "A")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postPublish(t, ts, "orders", nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Post(ts.URL+"/publish", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPublishAfterShutdown(t *testing.T) {
	broker, ts := newTestGateway(t)

	// A topic with a live subscription so publish actually dispatches.
	_, err := broker.Subscribe("orders", &nopSubscriber{id: "s1"})
	require.NoError(t, err)
	broker.ShutdownNow()

	resp := postPublish(t, ts, "orders", "late")
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestSubscribeStream(t *testing.T) {
	broker, ts := newTestGateway(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/subscribe?topic=orders"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The subscription is registered asynchronously to the dial.
	require.Eventually(t, func() bool {
		return broker.SubscriberCount("orders") == 1
	}, 2*time.Second, 5*time.Millisecond)

	resp := postPublish(t, ts, "orders", "A")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var evt eventFrame
	require.NoError(t, json.Unmarshal(data, &evt))
	assert.Equal(t, "orders", evt.Topic)
	assert.Equal(t, "A", evt.Payload)
	assert.NotEmpty(t, evt.MessageID)
}

func TestSubscribeRequiresTopic(t *testing.T) {
	_, ts := newTestGateway(t)

	resp, err := http.Get(ts.URL + "/ws/subscribe")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestGateway(t)

	resp := postPublish(t, ts, "orders", "A")
	resp.Body.Close()

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	require.Equal(t, http.StatusOK, metricsResp.StatusCode)

	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "pubsub_messages_published_total 1")
	assert.Contains(t, string(body), "pubsub_active_subscriptions 0")
}

type nopSubscriber struct{ id string }

func (s *nopSubscriber) ID() string                      { return s.id }
func (s *nopSubscriber) OnMessage(*pubsub.Message) error { return nil }
func (s *nopSubscriber) OnError(*pubsub.Message, error)  {}
