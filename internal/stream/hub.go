package stream

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Hub fans each tick's leaderboard out to live viewers watching a race.
// With redis configured the payload also travels through pub/sub so
// viewers connected to other instances receive it too.
type Hub struct {
	redis   *redis.Client
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	RaceCode string
	Send     chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[string]map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register(raceCode string) *Client {
	client := &Client{
		RaceCode: raceCode,
		Send:     make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[raceCode] == nil {
		h.clients[raceCode] = map[*Client]struct{}{}
	}
	h.clients[raceCode][client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if raceClients, ok := h.clients[client.RaceCode]; ok {
		delete(raceClients, client)
		if len(raceClients) == 0 {
			delete(h.clients, client.RaceCode)
		}
	}
	close(client.Send)
}

func (h *Hub) Broadcast(raceCode string, payload []byte) {
	// The read lock is held across the sends so Unregister cannot
	// delete from the map or close a Send channel mid-iteration. The
	// sends are non-blocking, so this never stalls the lock.
	h.mu.RLock()
	for client := range h.clients[raceCode] {
		select {
		case client.Send <- payload:
		default:
		}
	}
	h.mu.RUnlock()

	if h.redis != nil {
		err := h.redis.Publish(context.Background(), redisChannel(raceCode), payload).Err()
		if err != nil {
			logrus.Warnf("redis publish error: %v", err)
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.PSubscribe(ctx, "race:*:leaderboard")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		raceCode := raceCodeFromChannel(msg.Channel)
		h.mu.RLock()
		for client := range h.clients[raceCode] {
			select {
			case client.Send <- []byte(msg.Payload):
			default:
			}
		}
		h.mu.RUnlock()
	}
}

func redisChannel(raceCode string) string {
	return "race:" + raceCode + ":leaderboard"
}

func raceCodeFromChannel(ch string) string {
	// race:{code}:leaderboard
	const prefix = "race:"
	const suffix = ":leaderboard"
	if len(ch) <= len(prefix)+len(suffix) {
		return ""
	}
	return ch[len(prefix) : len(ch)-len(suffix)]
}
