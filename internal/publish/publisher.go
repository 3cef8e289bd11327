package publish

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	requestTypeLeaderboard = "leaderboard"
	requestTypeMap         = "map"
	requestTypeRaceState   = "race_state"

	queueSize      = 16
	requestTimeout = 10 * time.Second
)

type job struct {
	requestType string
	contentType string
	body        []byte
}

// Publisher pushes leaderboard, map and race state artifacts to the
// external display surface. Delivery is best effort: requests are
// queued and sent by a single worker, transport failures are logged and
// discarded, and a full queue drops the artifact instead of blocking
// the caller.
type Publisher struct {
	url    string
	token  string
	client *http.Client

	jobs chan job
	done chan struct{}
}

func New(url, token string) *Publisher {
	p := &Publisher{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: requestTimeout},
		jobs:   make(chan job, queueSize),
		done:   make(chan struct{}),
	}
	go p.worker()
	return p
}

// PublishLeaderboard sends the ranked list as a JSON array.
func (p *Publisher) PublishLeaderboard(entries any) {
	body, err := json.Marshal(entries)
	if err != nil {
		logrus.Warnf("marshaling leaderboard: %v", err)
		return
	}
	p.enqueue(job{requestType: requestTypeLeaderboard, contentType: "application/json", body: body})
}

// PublishMap sends the rendered map document as a raw body.
func (p *Publisher) PublishMap(doc string) {
	p.enqueue(job{requestType: requestTypeMap, contentType: "text/html", body: []byte(doc)})
}

// PublishState sends a plain "start" or "stop" token so the display
// surface can toggle its live indicator.
func (p *Publisher) PublishState(state string) {
	p.enqueue(job{requestType: requestTypeRaceState, contentType: "text/plain", body: []byte(state)})
}

// Close stops the worker after the queued jobs are drained.
func (p *Publisher) Close() {
	close(p.jobs)
	<-p.done
}

func (p *Publisher) enqueue(j job) {
	select {
	case p.jobs <- j:
	default:
		logrus.Warnf("publish queue full, dropping %s request", j.requestType)
	}
}

func (p *Publisher) worker() {
	defer close(p.done)
	for j := range p.jobs {
		p.post(j)
	}
}

func (p *Publisher) post(j job) {
	req, err := http.NewRequest(http.MethodPost, p.url, bytes.NewReader(j.body))
	if err != nil {
		logrus.Warnf("building %s request: %v", j.requestType, err)
		return
	}
	req.Header.Set("post-token", p.token)
	req.Header.Set("request-type", j.requestType)
	req.Header.Set("Content-Type", j.contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		logrus.Warnf("posting %s to %s: %v", j.requestType, p.url, err)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logrus.Warnf("posting %s to %s: status %d", j.requestType, p.url, resp.StatusCode)
	}
}
