package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/chat-order-intake/internal/core/domain"
	"github.com/kirillkom/chat-order-intake/internal/infrastructure/resilience"
)

type Queue struct {
	conn           *nats.Conn
	subject        string
	replySubject   string
	queueGroup     string
	concurrency    int
	messageTimeout time.Duration
	executor       *resilience.Executor
	logger         *slog.Logger
}

type Options struct {
	ReplySubject   string
	QueueGroup     string
	Concurrency    int
	MessageTimeout time.Duration

	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("chat-order-intake"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	q := &Queue{
		conn:           conn,
		subject:        subject,
		replySubject:   options.ReplySubject,
		queueGroup:     options.QueueGroup,
		concurrency:    options.Concurrency,
		messageTimeout: options.MessageTimeout,
		executor:       options.ResilienceExecutor,
		logger:         logger,
	}
	if q.queueGroup == "" {
		q.queueGroup = "order-workers"
	}
	if q.concurrency <= 0 {
		q.concurrency = 1
	}
	if q.messageTimeout <= 0 {
		q.messageTimeout = 30 * time.Second
	}
	return q, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// SubscribeOrderMessages consumes chat messages with at most Concurrency
// handlers in flight and publishes exactly one reply per message. It blocks
// until ctx is done, then drains the subscription and waits for running
// handlers.
func (q *Queue) SubscribeOrderMessages(ctx context.Context, handler func(context.Context, domain.ChatMessage) string) error {
	slots := make(chan struct{}, q.concurrency)
	var wg sync.WaitGroup

	sub, err := q.conn.QueueSubscribe(q.subject, q.queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		message := decodeChatMessage(msg, time.Now())

		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-slots }()
			q.handle(ctx, msg, message, handler)
		}()
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	drainErr := sub.Drain()
	wg.Wait()
	if drainErr != nil {
		return fmt.Errorf("nats drain subscription: %w", drainErr)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) handle(ctx context.Context, msg *nats.Msg, message domain.ChatMessage, handler func(context.Context, domain.ChatMessage) string) {
	handlerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.messageTimeout)
	defer cancel()

	text := handler(handlerCtx, message)
	if text == "" {
		return
	}
	if err := q.reply(handlerCtx, msg, message, text); err != nil {
		q.logger.Error("order_reply_failed",
			"message_id", message.ID,
			"chat_id", message.ChatID,
			"error", err,
		)
	}
}

func (q *Queue) reply(ctx context.Context, msg *nats.Msg, message domain.ChatMessage, text string) error {
	call := func(_ context.Context) error {
		if msg.Reply != "" {
			if err := msg.Respond([]byte(text)); err != nil {
				return fmt.Errorf("nats respond: %w", err)
			}
			return nil
		}
		if q.replySubject == "" {
			return nil
		}
		payload, err := encodeReply(message, text)
		if err != nil {
			return fmt.Errorf("encode reply: %w", err)
		}
		if err := q.conn.Publish(q.replySubject, payload); err != nil {
			return fmt.Errorf("nats publish reply: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.reply", call, classifyReplyError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapReplyError(err)
	}
	return nil
}
