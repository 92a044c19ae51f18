package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	queueSize              = 1000
	defaultMaxRetries      = 3
	defaultDeliveryTimeout = 10 * time.Second
)

// Dispatcher delivers events to a fixed set of endpoints, queueing and
// retrying deliveries asynchronously so a slow or unreachable subscriber
// never blocks the registry publish path.
type Dispatcher struct {
	endpoints []Endpoint
	client    *http.Client
	queue     chan Event
	done      chan struct{}
	closed    int32
}

// NewDispatcher creates a dispatcher for a fixed list of endpoints. An
// endpoint with MaxRetries <= 0 or Timeout <= 0 gets the package defaults.
func NewDispatcher(endpoints []Endpoint) *Dispatcher {
	normalized := make([]Endpoint, len(endpoints))
	for i, ep := range endpoints {
		if ep.MaxRetries <= 0 {
			ep.MaxRetries = defaultMaxRetries
		}
		if ep.Timeout <= 0 {
			ep.Timeout = defaultDeliveryTimeout
		}
		normalized[i] = ep
	}
	return &Dispatcher{
		endpoints: normalized,
		client:    &http.Client{},
		queue:     make(chan Event, queueSize),
		done:      make(chan struct{}),
	}
}

// Start begins processing queued events in the background.
func (d *Dispatcher) Start() {
	go d.worker()
}

// Close stops accepting new deliveries and waits for the queue to drain.
// Close is safe to call multiple times.
func (d *Dispatcher) Close() error {
	if !atomic.CompareAndSwapInt32(&d.closed, 0, 1) {
		return nil
	}
	close(d.queue)
	<-d.done
	return nil
}

// Dispatch queues an event for delivery. Non-blocking: if the queue is
// full the event is dropped and logged, never slowing the caller.
func (d *Dispatcher) Dispatch(event Event) {
	select {
	case d.queue <- event:
	default:
		log.Printf("[webhook] queue full (size=%d), dropping event: type=%s namespace=%s",
			queueSize, event.Type, event.NamespaceID)
	}
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for event := range d.queue {
		for _, ep := range d.endpoints {
			d.deliverWithRetry(context.Background(), ep, event)
		}
	}
}

func (d *Dispatcher) deliverWithRetry(ctx context.Context, ep Endpoint, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[webhook] failed to marshal event: url=%s error=%v", ep.URL, err)
		return
	}
	deliveryID := uuid.New().String()
	signature := SignDelivery(payload, deliveryID, ep.Secret)

	for attempt := 0; attempt <= ep.MaxRetries; attempt++ {
		start := time.Now()

		req, err := http.NewRequest(http.MethodPost, ep.URL, bytes.NewReader(payload))
		if err != nil {
			log.Printf("[webhook] failed to build request: url=%s error=%v", ep.URL, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Konditional-Signature", signature)
		req.Header.Set("X-Konditional-Event", string(event.Type))
		req.Header.Set("X-Konditional-Delivery", deliveryID)

		reqCtx, cancel := context.WithTimeout(ctx, ep.Timeout)
		resp, err := d.client.Do(req.WithContext(reqCtx))
		duration := time.Since(start)
		cancel()

		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			resp.Body.Close()
			log.Printf("[webhook] delivered: url=%s status=%d duration=%s attempt=%d/%d",
				ep.URL, resp.StatusCode, duration, attempt+1, ep.MaxRetries+1)
			return
		}

		status := 0
		if resp != nil {
			status = resp.StatusCode
			resp.Body.Close()
		}

		if attempt < ep.MaxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			log.Printf("[webhook] delivery failed: url=%s status=%d error=%v attempt=%d/%d retry_in=%s",
				ep.URL, status, err, attempt+1, ep.MaxRetries+1, backoff)
			time.Sleep(backoff)
		} else {
			log.Printf("[webhook] delivery failed permanently: url=%s status=%d error=%v attempts=%d",
				ep.URL, status, err, attempt+1)
		}
	}
}
