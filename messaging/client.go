package messaging

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"partsdesk/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	kafkago "github.com/segmentio/kafka-go"
)

// Client is the unified messaging client (MQTT or Kafka) used for the
// per-provider private notification channels.
type Client struct {
	mu       sync.RWMutex
	cfg      *config.MessagingConfig
	backend  string
	clientID string
	statusFn func(connected bool, err error)
	mqttConn mqtt.Client
	readers  []*kafkago.Reader
}

// NewClient creates a messaging client based on config.
func NewClient(cfg *config.MessagingConfig, clientID string) *Client {
	return &Client{
		cfg:      cfg,
		backend:  cfg.Backend,
		clientID: clientID,
	}
}

// SetStatusHandler registers a callback for connection state changes.
// It fires on every connect and reconnect and on lost connections.
// Must be called before Connect.
func (c *Client) SetStatusHandler(fn func(connected bool, err error)) {
	c.mu.Lock()
	c.statusFn = fn
	c.mu.Unlock()
}

func (c *Client) notifyStatus(connected bool, err error) {
	c.mu.RLock()
	fn := c.statusFn
	c.mu.RUnlock()
	if fn != nil {
		fn(connected, err)
	}
}

// Connect establishes the messaging connection.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.backend {
	case "mqtt":
		return c.connectMQTT()
	case "kafka":
		// Kafka readers are created per subscription.
		return nil
	default:
		return fmt.Errorf("unknown messaging backend: %s", c.backend)
	}
}

func (c *Client) connectMQTT() error {
	broker := fmt.Sprintf("tcp://%s:%d", c.cfg.MQTT.Broker, c.cfg.MQTT.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			c.notifyStatus(true, nil)
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("messaging: connection lost: %v", err)
			c.notifyStatus(false, err)
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	c.mqttConn = client
	return nil
}

// Subscribe registers a handler for messages on the given channel and
// returns a cancel func that must be called when the subscriber goes
// away or its identity changes.
func (c *Client) Subscribe(channel string, handler func(payload []byte)) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.backend {
	case "mqtt":
		if c.mqttConn == nil {
			return nil, fmt.Errorf("mqtt not connected")
		}
		token := c.mqttConn.Subscribe(channel, 1, func(_ mqtt.Client, msg mqtt.Message) {
			handler(msg.Payload())
		})
		token.Wait()
		if err := token.Error(); err != nil {
			return nil, err
		}
		cancel := func() {
			c.mu.RLock()
			conn := c.mqttConn
			c.mu.RUnlock()
			if conn != nil {
				conn.Unsubscribe(channel).Wait()
			}
		}
		return cancel, nil
	case "kafka":
		reader := kafkago.NewReader(kafkago.ReaderConfig{
			Brokers: c.cfg.Kafka.Brokers,
			Topic:   channel,
			GroupID: c.kafkaGroupID(),
		})
		c.readers = append(c.readers, reader)
		ctx, stop := context.WithCancel(context.Background())
		go func() {
			for {
				msg, err := reader.ReadMessage(ctx)
				if err != nil {
					if ctx.Err() == nil {
						log.Printf("messaging: kafka read: %v", err)
					}
					return
				}
				handler(msg.Value)
			}
		}()
		cancel := func() {
			stop()
			reader.Close()
		}
		return cancel, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", c.backend)
	}
}

func (c *Client) kafkaGroupID() string {
	if c.cfg.Kafka.GroupID != "" {
		return c.cfg.Kafka.GroupID
	}
	return c.clientID
}

// IsConnected returns whether the messaging client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.backend {
	case "mqtt":
		return c.mqttConn != nil && c.mqttConn.IsConnected()
	case "kafka":
		return true
	default:
		return false
	}
}

// Close shuts down the messaging connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mqttConn != nil {
		c.mqttConn.Disconnect(1000)
		c.mqttConn = nil
	}
	for _, r := range c.readers {
		r.Close()
	}
	c.readers = nil
}
