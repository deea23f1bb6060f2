// Package eventbus carries view events over MQTT so that recognizers running
// in other processes, such as a speech service or a remote tracker, can drive
// the viewer.
//
// Each sensor owns three topics:
//
//	<namespace>bodyview/<sensor>/gesture
//	<namespace>bodyview/<sensor>/voice
//	<namespace>bodyview/<sensor>/view
//
// Messages are view.Envelope values encoded as JSON or msgpack.
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"github.com/haivivi/bodyview/pkg/view"
)

const defaultConnectRetryDelay = 3 * time.Second

// Config holds configuration for a Client.
type Config struct {
	// URL is the broker address, e.g. "mqtt://localhost:1883". User info
	// in the URL is sent as credentials.
	URL string

	// ClientID defaults to "bodyview-" followed by a random UUID.
	ClientID string

	Topics Topics

	// Encoding of published envelopes. Received envelopes may use either.
	Encoding Encoding

	// Events receives decoded events. When nil the client only publishes.
	Events chan<- view.Event

	// KeepAlive in seconds (defaults to 20).
	KeepAlive uint16

	// ConnectRetryDelay defaults to 3s.
	ConnectRetryDelay time.Duration

	// OnConnectError is called for every failed connection attempt.
	OnConnectError func(error)
}

// Client publishes and receives view events.
type Client struct {
	cm     *autopaho.ConnectionManager
	id     string
	topics Topics
	enc    Encoding
	events chan<- view.Event

	received atomic.Int64
	dropped  atomic.Int64
	invalid  atomic.Int64
}

// Dial connects to the broker and waits for the first connection. When
// cfg.Events is set, the sensor's topics are subscribed after every
// (re)connection.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("eventbus: parse url: %w", err)
	}
	c := &Client{
		id:     cfg.ClientID,
		topics: cfg.Topics,
		enc:    cfg.Encoding,
		events: cfg.Events,
	}
	if c.id == "" {
		c.id = "bodyview-" + uuid.NewString()
	}
	keepAlive := cfg.KeepAlive
	if keepAlive == 0 {
		keepAlive = 20
	}
	retry := cfg.ConnectRetryDelay
	if retry == 0 {
		retry = defaultConnectRetryDelay
	}

	acfg := autopaho.ClientConfig{
		ServerUrls:                    []*url.URL{u},
		KeepAlive:                     keepAlive,
		CleanStartOnInitialConnection: true,
		ConnectRetryDelay:             retry,
		OnConnectError: func(err error) {
			if cfg.OnConnectError != nil {
				cfg.OnConnectError(err)
				return
			}
			slog.Warn("eventbus: connect", "url", u.Redacted(), "error", err)
		},
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			slog.Info("eventbus: connected", "url", u.Redacted(), "client", c.id)
			if c.events == nil {
				return
			}
			go c.subscribe(cm)
		},
		ConnectPacketBuilder: func(pc *paho.Connect, uri *url.URL) (*paho.Connect, error) {
			if uri.User == nil {
				return pc, nil
			}
			pc.UsernameFlag = true
			pc.Username = uri.User.Username()
			if pwd, ok := uri.User.Password(); ok {
				pc.PasswordFlag = true
				pc.Password = []byte(pwd)
			}
			return pc, nil
		},
		ClientConfig: paho.ClientConfig{
			ClientID: c.id,
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					if err := c.handle(pr.Packet.Topic, pr.Packet.Payload); err != nil {
						slog.Warn("eventbus: drop message", "topic", pr.Packet.Topic, "error", err)
					}
					return true, nil
				},
			},
		},
	}
	cm, err := autopaho.NewConnection(context.Background(), acfg)
	if err != nil {
		return nil, fmt.Errorf("eventbus: connect: %w", err)
	}
	if err := cm.AwaitConnection(ctx); err != nil {
		_ = cm.Disconnect(context.Background())
		return nil, fmt.Errorf("eventbus: await connection: %w", err)
	}
	c.cm = cm
	return c, nil
}

func (c *Client) subscribe(cm *autopaho.ConnectionManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	filter := c.topics.Filter()
	_, err := cm.Subscribe(ctx, &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{Topic: filter, QoS: 1}},
	})
	if err != nil {
		slog.Error("eventbus: subscribe", "topic", filter, "error", err)
	}
}

// ID returns the MQTT client ID, also used as the envelope source.
func (c *Client) ID() string { return c.id }

// Publish sends ev on the topic for its kind.
func (c *Client) Publish(ctx context.Context, ev view.Event) error {
	env := view.NewEnvelope(ev, c.id)
	b, err := Encode(env, c.enc)
	if err != nil {
		return err
	}
	_, err = c.cm.Publish(ctx, &paho.Publish{
		Topic:   c.topics.Topic(env.Type),
		QoS:     1,
		Payload: b,
		Properties: &paho.PublishProperties{
			ContentType: c.enc.ContentType(),
		},
	})
	if err != nil {
		return fmt.Errorf("eventbus: publish %s: %w", env.Type, err)
	}
	return nil
}

// handle decodes a message and forwards its event without blocking. Our
// own messages are skipped.
func (c *Client) handle(topic string, payload []byte) error {
	kind, err := c.topics.Parse(topic)
	if err != nil {
		c.invalid.Add(1)
		return err
	}
	env, err := Decode(payload)
	if err != nil {
		c.invalid.Add(1)
		return err
	}
	if env.Type != kind {
		c.invalid.Add(1)
		return fmt.Errorf("%w: %s event on %s topic", ErrBadTopic, env.Type, kind)
	}
	if env.Source == c.id {
		return nil
	}
	c.received.Add(1)
	select {
	case c.events <- env.Payload:
		return nil
	default:
		c.dropped.Add(1)
		return errors.New("eventbus: event channel full")
	}
}

// Stats reports received, dropped and invalid message counts.
func (c *Client) Stats() (received, dropped, invalid int64) {
	return c.received.Load(), c.dropped.Load(), c.invalid.Load()
}

// Close disconnects from the broker.
func (c *Client) Close(ctx context.Context) error {
	return c.cm.Disconnect(ctx)
}
