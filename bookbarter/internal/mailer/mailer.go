package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/Astemirdum/bookbarter/pkg/circuit_breaker"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"
)

type Config struct {
	APIKey    string `yaml:"apiKey" envconfig:"RESEND_API_KEY" json:"-"`
	FromEmail string `yaml:"fromEmail" envconfig:"MAIL_FROM" default:"noreply@bookbarter.app"`
	AppURL    string `yaml:"appURL" envconfig:"APP_URL" default:"http://localhost:5173"`
}

func (c Config) Enabled() bool {
	return c.APIKey != ""
}

var notificationTmpl = template.Must(template.New("notification").Parse(`<p>Hi {{.RecipientName}},</p>
<p><b>{{.SenderName}}</b> sent you a {{.Kind}} about <i>{{.BookTitle}}</i>:</p>
<blockquote>{{.Message}}</blockquote>
<p><a href="{{.Link}}">Open your inbox</a></p>`))

type NotificationMail struct {
	To            string
	RecipientName string
	SenderName    string
	Kind          string
	BookTitle     string
	Message       string
}

type Mailer struct {
	client *resend.Client
	cfg    Config
	cb     circuit_breaker.CircuitBreaker
	log    *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Mailer {
	return &Mailer{
		client: resend.NewClient(cfg.APIKey),
		cfg:    cfg,
		cb: circuit_breaker.New(circuit_breaker.Config{
			RecordLength:     20,
			Timeout:          30 * time.Second,
			Percentile:       0.5,
			RecoveryRequests: 2,
		}),
		log: log.Named("mailer"),
	}
}

func render(cfg Config, mail NotificationMail) (*resend.SendEmailRequest, error) {
	var body bytes.Buffer
	if err := notificationTmpl.Execute(&body, struct {
		NotificationMail
		Link string
	}{mail, cfg.AppURL + "/notifications"}); err != nil {
		return nil, errors.Wrap(err, "execute template")
	}
	return &resend.SendEmailRequest{
		From:    fmt.Sprintf("BookBarter <%s>", cfg.FromEmail),
		To:      []string{mail.To},
		Subject: fmt.Sprintf("New %s from %s", mail.Kind, mail.SenderName),
		Html:    body.String(),
	}, nil
}

func (m *Mailer) SendNotification(ctx context.Context, mail NotificationMail) error {
	params, err := render(m.cfg, mail)
	if err != nil {
		return err
	}
	return m.cb.Call(func() error {
		sent, err := m.client.Emails.SendWithContext(ctx, params)
		if err != nil {
			return errors.Wrap(err, "resend send")
		}
		m.log.Debug("mail sent", zap.String("id", sent.Id), zap.String("to", mail.To))
		return nil
	})
}
