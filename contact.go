package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/miki-714/portfolio/internal/store"
)

var errMailerNotConfigured = errors.New("SMTP credentials not configured")

type mailer interface {
	Send(ctx context.Context, m store.Message) error
}

type smtpMailer struct {
	host, port string
	user, pass string
	to         string
}

func newSMTPMailer(cfg Config) *smtpMailer {
	to := cfg.ToEmail
	if to == "" {
		to = cfg.SMTPUser
	}
	return &smtpMailer{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		to:   to,
	}
}

// smtpTimeout bounds a whole delivery when the caller's context has no
// deadline of its own.
const smtpTimeout = 30 * time.Second

func (m *smtpMailer) Send(ctx context.Context, msg store.Message) error {
	if m.user == "" || m.pass == "" {
		return errMailerNotConfigured
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, smtpTimeout)
		defer cancel()
	}
	if err := m.deliver(ctx, msg); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// deliver runs one SMTP conversation. The connection is cut as soon as ctx
// is done, so a stalled server can't hold the request.
func (m *smtpMailer) deliver(ctx context.Context, msg store.Message) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(m.host, m.port))
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}
	if ok, _ := c.Extension("AUTH"); ok {
		if err := c.Auth(smtp.PlainAuth("", m.user, m.pass, m.host)); err != nil {
			return err
		}
	}
	if err := c.Mail(m.user); err != nil {
		return err
	}
	if err := c.Rcpt(m.to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(composeEmail(m.user, m.to, msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// headerSafe strips characters that would let a form field add headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}

func composeEmail(from, to string, msg store.Message) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", headerSafe(msg.Name))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, msg.Name, msg.Email, msg.Body)

	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"Reply-To: " + headerSafe(msg.Email) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

// contactLimiter caps submissions per hashed address. An address's window
// restarts with each accepted submission.
type contactLimiter struct {
	mu    sync.Mutex
	limit int
	seen  *expirable.LRU[string, int]
}

func newContactLimiter(limit int, window time.Duration) *contactLimiter {
	return &contactLimiter{
		limit: limit,
		seen:  expirable.NewLRU[string, int](4096, nil, window),
	}
}

// Allow reserves a submission for key and reports whether it is within the
// limit. A reservation that is never stored must be handed back with Refund.
func (l *contactLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, _ := l.seen.Get(key)
	if n >= l.limit {
		return false
	}
	l.seen.Add(key, n+1)
	return true
}

// Refund gives back a reservation taken by Allow.
func (l *contactLimiter) Refund(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.seen.Peek(key)
	switch {
	case !ok:
	case n <= 1:
		l.seen.Remove(key)
	default:
		l.seen.Add(key, n-1)
	}
}

type contactForm struct {
	Name    string `form:"fullName" binding:"required,max=100"`
	Email   string `form:"email" binding:"required,email,max=254"`
	Message string `form:"message" binding:"required,max=5000"`
}

func (s *server) submitContact(c *gin.Context) {
	var form contactForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusOK, "contact-error", gin.H{
			"error": "Please fill in your name, a valid email address and a message.",
		})
		return
	}

	hashed := s.hashIP(c.ClientIP())
	if !s.limiter.Allow(hashed) {
		c.HTML(http.StatusTooManyRequests, "contact-error", gin.H{
			"error": "You've sent several messages already. Please try again later.",
		})
		return
	}

	msg, err := s.store.SaveMessage(c.Request.Context(), store.Message{
		Name:     strings.TrimSpace(form.Name),
		Email:    strings.TrimSpace(form.Email),
		Body:     strings.TrimSpace(form.Message),
		HashedIP: hashed,
	})
	if err != nil {
		s.limiter.Refund(hashed)
		log.Printf("Error saving contact message: %v", err)
		c.HTML(http.StatusOK, "contact-error", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	// The message is kept either way; an undelivered one shows up on the
	// dashboard.
	if err := s.mailer.Send(c.Request.Context(), msg); err != nil {
		log.Printf("Error sending email for message %s: %v", msg.ID, err)
	} else if err := s.store.MarkDelivered(c.Request.Context(), msg.ID); err != nil {
		log.Printf("Error marking message %s delivered: %v", msg.ID, err)
	} else {
		log.Printf("Email sent successfully for message %s", msg.ID)
	}

	c.HTML(http.StatusOK, "contact-success", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}
