package mailservice

import (
	"bytes"
	"errors"
	"sync"

	"github.com/go-mail/mail/v2"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/blogboard/internal/common"
)

type MockTemplate struct {
	mock.Mock
}

func (m *MockTemplate) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	args := m.Called(name, data)
	if args.Get(0) == nil {
		return nil, nil, nil, args.Error(3)
	}
	return args.Get(0).(*bytes.Buffer), args.Get(1).(*bytes.Buffer), args.Get(2).(*bytes.Buffer), args.Error(3)
}

type MockDialer struct {
	mock.Mock
}

func (d *MockDialer) DialAndSend(m ...*mail.Message) error {
	args := d.Called(m)
	return args.Error(0)
}

// MockMailer fails the first Failures sends and records every recipient.
type MockMailer struct {
	mu         sync.Mutex
	Failures   int
	attempts   int
	recipients []string
	data       []any
}

func (m *MockMailer) send(recipient string, data any, templateFile string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts++
	if m.attempts <= m.Failures {
		return errors.New("smtp unavailable")
	}

	m.recipients = append(m.recipients, recipient)
	m.data = append(m.data, data)
	return nil
}

func (m *MockMailer) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

func (m *MockMailer) Sent() ([]string, []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.recipients...), append([]any(nil), m.data...)
}

// MockMessageConsumer delivers Bodies once and closes the channel.
type MockMessageConsumer struct {
	mock.Mock
	Bodies [][]byte
}

func (m *MockMessageConsumer) Consume(key common.BindingKey, exchange common.Exchange, queue common.Queue) (<-chan amqp.Delivery, error) {
	args := m.Called(key, exchange, queue)
	if err := args.Error(0); err != nil {
		return nil, err
	}

	msgsChan := make(chan amqp.Delivery)

	go func() {
		defer close(msgsChan)

		for _, body := range m.Bodies {
			msgsChan <- amqp.Delivery{Body: body}
		}
	}()

	return msgsChan, nil
}

// MockLogger records log messages by level.
type MockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (l *MockLogger) Info(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *MockLogger) Error(msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *MockLogger) Messages() (infos, errs []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.infos...), append([]string(nil), l.errors...)
}
