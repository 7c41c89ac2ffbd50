package mailservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/blogboard/internal/common"
	"golang.org/x/exp/rand"
)

// NewMailService returns a service that emails recipient about every new post.
func NewMailService(mb common.MessageConsumer, m Mailer, recipient string, logger MailLogger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:         mb,
		m:          m,
		logger:     logger,
		recipient:  recipient,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// NotifyPostCreated starts consuming post.created events in the background.
func (s *MailService) NotifyPostCreated() error {
	msgs, err := s.mb.Consume(common.PostCreatedKey, common.PostExchange, common.PostCreatedQueue)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handle(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping post notifications due to context cancellation")
				return
			}
		}
	}()

	return nil
}

func (s *MailService) handle(msg amqp.Delivery) {
	var event postCreated
	err := json.Unmarshal(msg.Body, &event)
	if err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		msg.Ack(false)
		return
	}

	payload := notification{
		Title:     event.Title,
		CreatedAt: event.CreatedAt,
		Path:      fmt.Sprintf("/post/%d", event.ID),
	}

	// exponential backoff with jitter
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		err = s.m.send(s.recipient, payload, PostCreatedTemplate)
		if err == nil {
			s.logger.Info("post notification sent", slog.Int("post_id", event.ID), slog.String("email", s.recipient))
			msg.Ack(false)
			return
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying post notification", slog.Int("post_id", event.ID), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return
		}
	}

	s.logger.Error("could not send post notification", slog.Int("post_id", event.ID), slog.String("error", err.Error()))
	msg.Ack(false)
}

// Close stops the consumer and waits for an in-flight notification to finish.
func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
