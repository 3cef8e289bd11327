package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("gravel100")
	defer hub.Unregister(client)

	payload := []byte(`[{"rank":1}]`)
	hub.Broadcast("gravel100", payload)

	select {
	case msg := <-client.Send:
		if string(msg) != `[{"rank":1}]` {
			t.Fatalf("unexpected message")
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for message")
	}
}

func TestHubBroadcastScopedByRace(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("night50")
	defer hub.Unregister(client)

	hub.Broadcast("gravel100", []byte("other race"))

	select {
	case <-client.Send:
		t.Fatalf("viewer of another race must not receive the broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubBroadcastDuringUnregister(t *testing.T) {
	hub := NewHub(nil)

	// A viewer disconnecting while a tick is being fanned out must not
	// trip over the client map or a closed Send channel.
	for i := 0; i < 200; i++ {
		client := hub.Register("gravel100")
		extra := hub.Register("gravel100")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Broadcast("gravel100", []byte("tick"))
		}()
		go func() {
			defer wg.Done()
			hub.Unregister(client)
		}()
		wg.Wait()
		hub.Unregister(extra)
	}
}

func TestHubHelpers(t *testing.T) {
	ch := redisChannel("abc")
	if ch == "" {
		t.Fatalf("expected channel")
	}
	if raceCodeFromChannel(ch) != "abc" {
		t.Fatalf("unexpected race code")
	}
	if raceCodeFromChannel("bad") != "" {
		t.Fatalf("expected empty race code")
	}
}

func TestUnregisterCloses(t *testing.T) {
	hub := NewHub(nil)
	client := hub.Register("gravel100")
	hub.Unregister(client)
	_, ok := <-client.Send
	if ok {
		t.Fatalf("expected channel closed")
	}
}

func TestHubRedisBroadcastAndSubscribe(t *testing.T) {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	hub := NewHub(client)
	ws := hub.Register("gravel100")
	defer hub.Unregister(ws)

	hub.Broadcast("gravel100", []byte("ping"))

	select {
	case msg := <-ws.Send:
		if string(msg) != "ping" {
			t.Fatalf("unexpected message")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}

	// subscribeRedis forwards publishes from other instances to local viewers
	other := hub.Register("night50")
	defer hub.Unregister(other)

	time.Sleep(20 * time.Millisecond)
	if err := client.Publish(context.Background(), "race:night50:leaderboard", "pong").Err(); err != nil {
		t.Fatalf("publish error: %v", err)
	}

	select {
	case msg := <-other.Send:
		if string(msg) != "pong" {
			t.Fatalf("unexpected message from redis")
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for redis message")
	}
}

func TestHubRedisPublishError(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	server.Close()
	defer client.Close()

	hub := NewHub(client)
	clientNode := hub.Register("gravel100")
	defer hub.Unregister(clientNode)

	hub.Broadcast("gravel100", []byte("ping"))
}
