package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	// ErrNotConnected is returned when the client has no open channel.
	ErrNotConnected = errors.New("not connected to RabbitMQ")
	// ErrClosed is returned by a connect attempt that races with Close.
	ErrClosed = errors.New("RabbitMQ client closed")
)

// Config holds RabbitMQ connection and topology configuration
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	VHost              string
	ExchangeName       string
	ExchangeType       string
	ExchangeDurable    bool
	ExchangeAutoDelete bool
	QueueName          string
	QueueDurable       bool
	QueueAutoDelete    bool
	QueueExclusive     bool
	// BindingKeys are bound from the exchange to the queue. Publishers
	// that never consume can leave QueueName empty to skip the queue.
	BindingKeys        []string
	PrefetchCount      int
	RetryAttempts      int
	RetryInterval      time.Duration
	Heartbeat          time.Duration
	ConnectionTimeout  time.Duration
	PublishRetries     int
	PublishRetryDelay  time.Duration
	PublishBackoffMult float64
}

// Message is one outgoing publishing.
type Message struct {
	RoutingKey  string
	MessageID   string
	Type        string
	ContentType string
	Body        []byte
	Timestamp   time.Time
}

// Client represents a RabbitMQ client
type Client struct {
	config *Config
	logger *slog.Logger

	mu          sync.RWMutex
	conn        *amqp.Connection
	channel     *amqp.Channel
	closeChan   chan *amqp.Error
	isConnected bool

	// dial opens a fresh connection and channel. It is c.connect outside
	// of tests.
	dial      func() error
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a new RabbitMQ client and declares its topology. The
// client reconnects on its own when the broker drops the channel.
func NewClient(config *Config, logger *slog.Logger) (*Client, error) {
	client := newClient(config, logger)

	if err := client.connect(); err != nil {
		return nil, fmt.Errorf("failed to create RabbitMQ client: %w", err)
	}

	return client, nil
}

func newClient(config *Config, logger *slog.Logger) *Client {
	c := &Client{
		config: config,
		logger: logger,
		done:   make(chan struct{}),
	}
	c.dial = c.connect
	return c
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// sleep waits d unless Close is called first. It reports whether the full
// interval elapsed.
func (c *Client) sleep(d time.Duration) bool {
	if d <= 0 {
		return !c.closed()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-c.done:
		return false
	case <-timer.C:
		return true
	}
}

func (c *Client) uri() string {
	uri := amqp.URI{
		Scheme:   "amqp",
		Host:     c.config.Host,
		Port:     c.config.Port,
		Username: c.config.User,
		Password: c.config.Password,
		Vhost:    c.config.VHost,
	}
	return uri.String()
}

// connect establishes connection to RabbitMQ with retry logic
func (c *Client) connect() error {
	amqpConfig := amqp.Config{
		Heartbeat: c.config.Heartbeat,
		Locale:    "en_US",
	}
	if c.config.ConnectionTimeout > 0 {
		amqpConfig.Dial = amqp.DefaultDial(c.config.ConnectionTimeout)
	}

	attempts := c.config.RetryAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		c.logger.Info("Connecting to RabbitMQ",
			slog.String("host", c.config.Host),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
		)

		conn, err = amqp.DialConfig(c.uri(), amqpConfig)
		if err == nil {
			break
		}

		c.logger.Error("Failed to connect to RabbitMQ",
			slog.Any("error", err),
			slog.Int("attempt", attempt),
		)

		if attempt < attempts && !c.sleep(c.config.RetryInterval) {
			return ErrClosed
		}
	}
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", attempts, err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to setup topology: %w", err)
	}

	closeChan := make(chan *amqp.Error, 1)
	channel.NotifyClose(closeChan)

	c.mu.Lock()
	if c.closed() {
		c.mu.Unlock()
		channel.Close()
		conn.Close()
		return ErrClosed
	}
	oldConn := c.conn
	c.conn = conn
	c.channel = channel
	c.closeChan = closeChan
	c.isConnected = true
	c.mu.Unlock()

	if oldConn != nil && !oldConn.IsClosed() {
		oldConn.Close()
	}

	go c.watch(closeChan)

	c.logger.Info("RabbitMQ client initialized",
		slog.String("exchange", c.config.ExchangeName),
		slog.String("queue", c.config.QueueName),
		slog.Any("binding_keys", c.config.BindingKeys),
	)

	return nil
}

// watch marks the client disconnected once the channel closes and, unless
// Close was called, reconnects.
func (c *Client) watch(closeChan <-chan *amqp.Error) {
	amqpErr, ok := <-closeChan
	c.mu.Lock()
	c.isConnected = false
	c.mu.Unlock()

	if c.closed() {
		return
	}
	if ok && amqpErr != nil {
		c.logger.Error("RabbitMQ channel closed",
			slog.Int("code", amqpErr.Code),
			slog.String("reason", amqpErr.Reason),
		)
	}
	c.reconnect()
}

// reconnect calls dial every RetryInterval until it succeeds or the client
// is closed. A successful dial starts a new watch.
func (c *Client) reconnect() {
	interval := c.config.RetryInterval
	if interval <= 0 {
		interval = time.Second
	}
	for attempt := 1; !c.closed(); attempt++ {
		err := c.dial()
		if err == nil {
			c.logger.Info("Reconnected to RabbitMQ", slog.Int("attempt", attempt))
			return
		}
		if errors.Is(err, ErrClosed) {
			return
		}
		c.logger.Warn("RabbitMQ reconnect failed",
			slog.Int("attempt", attempt),
			slog.Duration("retry_after", interval),
			slog.Any("error", err),
		)
		if !c.sleep(interval) {
			return
		}
	}
}

// setup declares the exchange and, when a queue is configured, the queue
// with its bindings and the consumer prefetch.
func (c *Client) setup(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		c.config.ExchangeName,       // name
		c.config.ExchangeType,       // type
		c.config.ExchangeDurable,    // durable
		c.config.ExchangeAutoDelete, // auto-deleted
		false,                       // internal
		false,                       // no-wait
		nil,                         // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if c.config.QueueName == "" {
		return nil
	}

	_, err = channel.QueueDeclare(
		c.config.QueueName,       // name
		c.config.QueueDurable,    // durable
		c.config.QueueAutoDelete, // auto-delete
		c.config.QueueExclusive,  // exclusive
		false,                    // no-wait
		nil,                      // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, key := range c.config.BindingKeys {
		if err := channel.QueueBind(c.config.QueueName, key, c.config.ExchangeName, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue with key %q: %w", key, err)
		}
	}

	if c.config.PrefetchCount > 0 {
		if err := channel.Qos(c.config.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set prefetch: %w", err)
		}
	}

	return nil
}

func (c *Client) currentChannel() (*amqp.Channel, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.isConnected || c.channel == nil {
		return nil, ErrNotConnected
	}
	return c.channel, nil
}

// Publish sends msg to the exchange, retrying with exponential backoff.
// It gives up early when ctx is done.
func (c *Client) Publish(ctx context.Context, msg Message) error {
	maxRetries := c.config.PublishRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	delay := c.config.PublishRetryDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	backoffMult := c.config.PublishBackoffMult
	if backoffMult < 1 {
		backoffMult = 2.0
	}

	timestamp := msg.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	publishing := amqp.Publishing{
		ContentType:  msg.ContentType,
		MessageId:    msg.MessageID,
		Type:         msg.Type,
		Body:         msg.Body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    timestamp,
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		channel, err := c.currentChannel()
		if err == nil {
			err = channel.PublishWithContext(
				ctx,
				c.config.ExchangeName, // exchange
				msg.RoutingKey,        // routing key
				false,                 // mandatory
				false,                 // immediate
				publishing,
			)
		}
		if err == nil {
			c.logger.Debug("Message published to RabbitMQ",
				slog.String("routing_key", msg.RoutingKey),
				slog.String("message_id", msg.MessageID),
				slog.Int("attempt", attempt+1),
			)
			return nil
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		c.logger.Warn("Failed to publish message to RabbitMQ, retrying",
			slog.Int("attempt", attempt+1),
			slog.Int("max_retries", maxRetries),
			slog.Duration("retry_after", delay),
			slog.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("publish cancelled after %d attempts: %w", attempt+1, ctx.Err())
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * backoffMult)
	}

	return fmt.Errorf("failed to publish message after %d attempts: %w", maxRetries+1, lastErr)
}

// Consume starts consuming messages from the queue with manual acks
func (c *Client) Consume(consumerTag string) (<-chan amqp.Delivery, error) {
	channel, err := c.currentChannel()
	if err != nil {
		return nil, err
	}

	messages, err := channel.Consume(
		c.config.QueueName, // queue
		consumerTag,        // consumer tag
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume messages: %w", err)
	}

	c.logger.Info("Started consuming messages from RabbitMQ",
		slog.String("queue", c.config.QueueName),
		slog.String("consumer_tag", consumerTag),
		slog.Int("prefetch", c.config.PrefetchCount),
	)

	return messages, nil
}

// Cancel stops deliveries to consumerTag without closing the channel, so
// in-flight messages can still be acknowledged.
func (c *Client) Cancel(consumerTag string) error {
	channel, err := c.currentChannel()
	if err != nil {
		return err
	}
	return channel.Cancel(consumerTag, false)
}

// Close stops reconnecting and closes the channel and the connection.
func (c *Client) Close() error {
	c.logger.Info("Closing RabbitMQ connection")

	c.mu.Lock()
	c.closeOnce.Do(func() { close(c.done) })
	c.isConnected = false
	channel, conn := c.channel, c.conn
	c.mu.Unlock()

	if channel != nil {
		if err := channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Error("Failed to close RabbitMQ channel", slog.Any("error", err))
		}
	}

	if conn != nil {
		if err := conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			c.logger.Error("Failed to close RabbitMQ connection", slog.Any("error", err))
			return err
		}
	}

	c.logger.Info("RabbitMQ connection closed")
	return nil
}

// IsConnected returns the connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected && c.conn != nil && !c.conn.IsClosed()
}
