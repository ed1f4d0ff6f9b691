package app

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// MailSender delivers one HTML message.
type MailSender interface {
	Send(ctx context.Context, msg Message) error
}

type Message struct {
	To      string
	Subject string
	HTML    string
}

var ErrMailNotConfigured = errors.New("mail sender not configured")

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPMailer sends over STARTTLS with PLAIN auth, which is what Gmail app
// passwords expect.
type SMTPMailer struct {
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, ErrMailNotConfigured
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("smtp port must be between 1 and 65535")
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPMailer{cfg: cfg}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to smtp server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
		return fmt.Errorf("start tls: %w", err)
	}
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}
	if _, err := w.Write(buildMessage(m.cfg.From, msg, time.Now())); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return client.Quit()
}

func buildMessage(from string, msg Message, now time.Time) []byte {
	var buf bytes.Buffer
	header := func(k, v string) {
		buf.WriteString(k + ": " + v + "\r\n")
	}
	header("From", from)
	header("To", msg.To)
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="UTF-8"`)
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTML)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

type unconfiguredMailer struct{}

func (unconfiguredMailer) Send(context.Context, Message) error {
	return ErrMailNotConfigured
}

var (
	clientEmailTmpl = template.Must(template.New("client").Parse(`
<h2>Booking Confirmation</h2>
<p>Dear {{.Name}},</p>
<p>Your booking has been confirmed!</p>
<p><strong>Service:</strong> {{.ServiceName}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><strong>Price:</strong> {{.Price}} (USD ${{.PriceUSD}})</p>
{{if .MeetLink}}<p><strong>Meeting Link:</strong> <a href="{{.MeetLink}}">{{.MeetLink}}</a></p>
{{end}}<p>Thank you!</p>
`))

	ownerEmailTmpl = template.Must(template.New("owner").Parse(`
<h2>New Booking Received</h2>
<p><strong>Client:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Service:</strong> {{.ServiceName}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><strong>Price:</strong> {{.Price}} (USD ${{.PriceUSD}})</p>
`))
)

type emailView struct {
	Name, Email, Phone string
	ServiceName        string
	Date, Time         string
	Price, PriceUSD    string
	MeetLink           string
}

func newEmailView(b *Booking) emailView {
	v := emailView{
		Name:        b.Name,
		Email:       b.Email,
		Phone:       b.Phone,
		ServiceName: b.ServiceName,
		Date:        b.Date,
		Time:        b.Time,
		Price:       b.Price.String(),
		PriceUSD:    b.PriceUSD.String(),
	}
	if b.HasMeetLink() {
		v.MeetLink = b.MeetLink
	}
	return v
}

func clientConfirmation(b *Booking) (Message, error) {
	var buf bytes.Buffer
	if err := clientEmailTmpl.Execute(&buf, newEmailView(b)); err != nil {
		return Message{}, fmt.Errorf("render client email: %w", err)
	}
	return Message{
		To:      b.Email,
		Subject: "Booking Confirmation - " + b.ServiceName,
		HTML:    buf.String(),
	}, nil
}

func ownerNotification(b *Booking, owner string) (Message, error) {
	var buf bytes.Buffer
	if err := ownerEmailTmpl.Execute(&buf, newEmailView(b)); err != nil {
		return Message{}, fmt.Errorf("render owner email: %w", err)
	}
	return Message{
		To:      owner,
		Subject: "New Booking - " + b.ServiceName,
		HTML:    buf.String(),
	}, nil
}
