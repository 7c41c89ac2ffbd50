package mailservice

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/go-mail/mail/v2"

	"github.com/sushihentaime/blogboard/internal/common"
)

const (
	PostCreatedTemplate = "post_created.html"

	defaultMaxRetries = 5
	defaultBaseDelay  = 500 * time.Millisecond
)

type MailService struct {
	mb        common.MessageConsumer
	m         Mailer
	logger    MailLogger
	recipient string

	maxRetries int
	baseDelay  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type MailLogger interface {
	Error(msg string, args ...any)
	Info(msg string, args ...any)
}

type Mail struct {
	mu     sync.Mutex
	dialer Dialer
	parser TemplateParser
	sender string
}

type Mailer interface {
	send(recipient string, data any, templateFile string) error
}

type Template struct{}

type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type TemplateParser interface {
	ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error)
}

// postCreated mirrors the post.created event body.
type postCreated struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// notification is the data passed to the post_created template.
type notification struct {
	Title     string
	CreatedAt time.Time
	Path      string
}
