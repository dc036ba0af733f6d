package tracking

import (
	"log"
	"net/http"
	"time"

	"github.com/matst80/slask-gallery/pkg/common"
	"github.com/matst80/slask-gallery/pkg/messaging"
	"github.com/matst80/slask-gallery/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

const trackingPrefix = "global"

// RabbitTracking publishes visitor events to the tracking topic. Events are
// queued and sent in the background so handlers never wait for the broker.
type RabbitTracking struct {
	context    string
	connection *amqp.Connection
	queue      *common.QueueHandler[any]
}

func NewRabbitTracking(url, context string) (*RabbitTracking, error) {
	ret := &RabbitTracking{context: context}
	if err := ret.connect(url); err != nil {
		return nil, err
	}
	ret.queue = common.NewQueueHandler(ret.sendBatch, 20, 500*time.Millisecond)
	return ret, nil
}

func (t *RabbitTracking) connect(url string) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return err
	}
	if err = declareTracking(conn); err != nil {
		return err
	}
	t.connection = conn
	return nil
}

type channelOpener interface {
	Channel() (*amqp.Channel, error)
	Close() error
}

// declareTracking sets up the tracking topic and closes conn when it fails.
func declareTracking(conn channelOpener) error {
	ch, err := conn.Channel()
	if err == nil {
		err = messaging.DefineTopic(ch, trackingPrefix, messaging.Tracking)
		ch.Close()
	}
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			log.Printf("Failed to close rabbitmq connection: %v", closeErr)
		}
		return err
	}
	return nil
}

func (t *RabbitTracking) sendBatch(events []any) {
	for _, event := range events {
		if err := messaging.SendChange(t.connection, trackingPrefix, messaging.Tracking, event); err != nil {
			log.Println("Error sending tracking event: ", err)
		}
	}
}

// Close flushes queued events before closing the connection.
func (t *RabbitTracking) Close() error {
	t.queue.Close()
	return t.connection.Close()
}

type BaseEvent struct {
	SessionId string `json:"session_id"`
	Context   string `json:"context,omitempty"`
	Event     uint16 `json:"event"`
}

type Session struct {
	*BaseEvent
	UserAgent    string `json:"user_agent,omitempty"`
	Ip           string `json:"ip,omitempty"`
	Language     string `json:"language,omitempty"`
	PragmaHeader string `json:"pragma,omitempty"`
}

type ListingEventData struct {
	*BaseEvent
	types.ListingEvent
}

func clientIp(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func (t *RabbitTracking) TrackSession(sessionId string, r *http.Request) {
	t.queue.Add(Session{
		BaseEvent:    &BaseEvent{Event: 0, SessionId: sessionId, Context: t.context},
		Language:     r.Header.Get("Accept-Language"),
		UserAgent:    r.UserAgent(),
		Ip:           clientIp(r),
		PragmaHeader: r.Header.Get("Pragma"),
	})
}

func (t *RabbitTracking) TrackListing(sessionId string, event types.ListingEvent) {
	t.queue.Add(ListingEventData{
		BaseEvent:    &BaseEvent{Event: 1, SessionId: sessionId, Context: t.context},
		ListingEvent: event,
	})
}
