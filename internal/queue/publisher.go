// Package queue implements the durable notification queue protocol over
// RabbitMQ: a main queue, a TTL-based retry queue that dead-letters back
// into the main queue, and a terminal final DLQ for messages given up on.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/yizus58/api-zoo/internal/config"
	"github.com/yizus58/api-zoo/internal/types"
)

const (
	// RetryQueueName holds messages a consumer could not process. Its TTL
	// expires them back into the main queue via the default exchange.
	RetryQueueName = "email_retry_queue"

	// retryMessageTTL is how long a message parks in the retry queue before
	// being dead-lettered back to the main queue, in milliseconds.
	retryMessageTTL = int32(60000)
)

// BackoffPolicy configures publish retries. Attempts = MaxRetries + 1; the
// delay before retry n (zero-based) is BaseDelay * 2^n.
type BackoffPolicy struct {
	BaseDelay  time.Duration
	MaxRetries int
}

// DefaultBackoffPolicy matches the consumer contract: 1s base delay
// doubling across 15 retries (16 attempts, last delay ~9.1h cumulative).
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		BaseDelay:  time.Second,
		MaxRetries: 15,
	}
}

// Delay returns the wait before the retry following zero-based attempt n.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<uint(attempt))
}

// Channel is the slice of the AMQP channel API the publisher uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueDeclarePassive(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Connection abstracts the AMQP connection for testability.
type Connection interface {
	Channel() (Channel, error)
	Close() error
}

// Dialer opens a broker connection. Production code uses AMQPDialer; tests
// inject fakes.
type Dialer func(url string) (Connection, error)

type amqpConnection struct {
	conn *amqp.Connection
}

func (c *amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (c *amqpConnection) Close() error { return c.conn.Close() }

// AMQPDialer connects to a real RabbitMQ broker.
func AMQPDialer(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &amqpConnection{conn: conn}, nil
}

// Publisher owns the broker connection and the queue topology. It connects
// lazily on first use and transparently reconnects after a publish failure,
// so the backoff loop in PublishMessageBackoff doubles as connection
// recovery.
type Publisher struct {
	url       string
	queueName string
	dlqName   string
	dial      Dialer
	policy    BackoffPolicy
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *slog.Logger

	mu   sync.Mutex
	conn Connection
	ch   Channel
}

// PublisherOption is a functional option for configuring a Publisher.
type PublisherOption func(*Publisher)

// WithBackoffPolicy overrides the default publish retry policy.
func WithBackoffPolicy(policy BackoffPolicy) PublisherOption {
	return func(p *Publisher) { p.policy = policy }
}

// WithSleepFunc overrides the inter-retry sleep, used by tests to avoid
// real delays.
func WithSleepFunc(fn func(ctx context.Context, d time.Duration) error) PublisherOption {
	return func(p *Publisher) { p.sleep = fn }
}

// NewPublisher creates a Publisher for the configured broker. No connection
// is attempted until the first publish or an explicit Connect.
func NewPublisher(cfg config.BrokerConfig, dial Dialer, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		url:       cfg.URL.Unmask(),
		queueName: cfg.QueueName,
		dlqName:   cfg.FinalDLQName(),
		dial:      dial,
		policy:    DefaultBackoffPolicy(),
		sleep:     sleepContext,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Connect establishes the broker connection and provisions the queue
// topology if it does not exist yet. Safe to call more than once.
func (p *Publisher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureChannelLocked(ctx)
}

// ensureChannelLocked dials and provisions topology if no live channel is
// held. Callers must hold p.mu.
func (p *Publisher) ensureChannelLocked(ctx context.Context) error {
	if p.ch != nil {
		return nil
	}

	conn, err := p.dial(p.url)
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamBroker, "failed to connect to message broker", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return types.NewAppError(types.ErrCodeUpstreamBroker, "failed to open broker channel", err)
	}

	// Probe for the main queue. A failed passive declare closes the channel
	// as part of the AMQP error contract, so a fresh one is opened before
	// provisioning the full topology.
	if _, err := ch.QueueDeclarePassive(p.queueName, true, false, false, false, nil); err != nil {
		ch, err = conn.Channel()
		if err != nil {
			conn.Close()
			return types.NewAppError(types.ErrCodeUpstreamBroker, "failed to reopen broker channel", err)
		}
		if err := p.declareTopology(ch); err != nil {
			conn.Close()
			return err
		}
		p.logger.InfoContext(ctx, "queue topology provisioned",
			"main", p.queueName, "retry", RetryQueueName, "final_dlq", p.dlqName)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

// declareTopology creates the three queues of the protocol. Order matters:
// the final DLQ and retry queue must exist before the main queue references
// them as dead-letter targets.
func (p *Publisher) declareTopology(ch Channel) error {
	if _, err := ch.QueueDeclare(p.dlqName, true, false, false, false, nil); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamBroker,
			fmt.Sprintf("failed to declare queue %q", p.dlqName), err)
	}

	retryArgs := amqp.Table{
		"x-message-ttl":             retryMessageTTL,
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": p.queueName,
	}
	if _, err := ch.QueueDeclare(RetryQueueName, true, false, false, false, retryArgs); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamBroker,
			fmt.Sprintf("failed to declare queue %q", RetryQueueName), err)
	}

	mainArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": p.queueName,
	}
	if _, err := ch.QueueDeclare(p.queueName, true, false, false, false, mainArgs); err != nil {
		return types.NewAppError(types.ErrCodeUpstreamBroker,
			fmt.Sprintf("failed to declare queue %q", p.queueName), err)
	}
	return nil
}

// sendToQueue publishes one persistent JSON message to the named queue via
// the default exchange. On failure the cached connection is discarded so
// the next attempt redials.
func (p *Publisher) sendToQueue(ctx context.Context, queue string, msg *types.QueueMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannelLocked(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to serialize queue message", err)
	}

	err = p.ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		p.dropConnectionLocked()
		return types.NewAppError(types.ErrCodeUpstreamBroker,
			fmt.Sprintf("failed to publish to queue %q", queue), err)
	}
	return nil
}

func (p *Publisher) dropConnectionLocked() {
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// PublishMessageBackoff publishes msg to the main queue, retrying with
// exponential backoff until the policy is exhausted. It never routes to the
// final DLQ on its own; that decision belongs to the caller.
func (p *Publisher) PublishMessageBackoff(ctx context.Context, msg *types.QueueMessage) error {
	var lastErr error
	for attempt := 0; attempt <= p.policy.MaxRetries; attempt++ {
		err := p.sendToQueue(ctx, p.queueName, msg)
		if err == nil {
			if attempt > 0 {
				p.logger.InfoContext(ctx, "message published after retries",
					"queue", p.queueName, "attempts", attempt+1)
			}
			return nil
		}
		lastErr = err

		if attempt == p.policy.MaxRetries {
			break
		}
		delay := p.policy.Delay(attempt)
		p.logger.WarnContext(ctx, "publish attempt failed, backing off",
			"queue", p.queueName,
			"attempt", attempt+1,
			"max_attempts", p.policy.MaxRetries+1,
			"delay", delay.String(),
			"error", err,
		)
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}

	p.logger.ErrorContext(ctx, "publish failed after exhausting retries",
		"queue", p.queueName, "attempts", p.policy.MaxRetries+1, "error", lastErr)
	return lastErr
}

// PublishToRetryQueue parks an enriched copy of msg in the retry queue. The
// broker returns it to the main queue after the queue TTL expires. The
// original message is not mutated.
func (p *Publisher) PublishToRetryQueue(ctx context.Context, msg *types.QueueMessage, cause error) error {
	enriched := *msg
	enriched.RetryCount = msg.RetryCount + 1
	enriched.OriginalQueue = p.queueName
	if cause != nil {
		enriched.LastError = cause.Error()
	}
	if err := p.sendToQueue(ctx, RetryQueueName, &enriched); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "message parked in retry queue",
		"queue", RetryQueueName, "retry_count", enriched.RetryCount)
	return nil
}

// PublishToFinalDLQ routes a copy of msg to the terminal dead-letter queue,
// stamped with the failure instant and the final-failure marker. Nothing
// consumes this queue automatically; it exists for manual inspection.
func (p *Publisher) PublishToFinalDLQ(ctx context.Context, msg *types.QueueMessage, cause error) error {
	now := time.Now().UTC()
	terminal := *msg
	terminal.FailedAt = &now
	terminal.FinalFailure = true
	if cause != nil {
		terminal.LastError = cause.Error()
	}
	if err := p.sendToQueue(ctx, p.dlqName, &terminal); err != nil {
		return err
	}
	p.logger.WarnContext(ctx, "message routed to final dead-letter queue",
		"queue", p.dlqName, "user_id", msg.Data.UserID)
	return nil
}

// Consume reads queue deliveries and invokes handler for each one. A nil
// handler error acks the delivery; any error nacks it without requeue so
// the queue's dead-letter config decides where it goes. Blocks until ctx is
// canceled or the delivery channel closes.
func (p *Publisher) Consume(ctx context.Context, queue string, handler func(context.Context, *types.QueueMessage) error) error {
	p.mu.Lock()
	if err := p.ensureChannelLocked(ctx); err != nil {
		p.mu.Unlock()
		return err
	}
	ch := p.ch
	p.mu.Unlock()

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return types.NewAppError(types.ErrCodeUpstreamBroker,
			fmt.Sprintf("failed to start consuming queue %q", queue), err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var msg types.QueueMessage
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				p.logger.ErrorContext(ctx, "discarding undecodable delivery",
					"queue", queue, "error", err)
				d.Nack(false, false)
				continue
			}
			if err := handler(ctx, &msg); err != nil {
				p.logger.ErrorContext(ctx, "delivery handler failed",
					"queue", queue, "error", err)
				d.Nack(false, false)
				continue
			}
			d.Ack(false)
		}
	}
}

// Close tears down the channel and connection. Safe when never connected.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.ch = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		p.conn = nil
	}
	return firstErr
}
