package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/vvka-141/perfdigest/internal/config"
	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

const dialTimeout = 30 * time.Second

// deliverFunc hands a composed message to the mail server.
type deliverFunc func(ctx context.Context, cfg config.SMTPConfig, from string, to []string, msg []byte) error

// deliverSMTP sends msg with PLAIN auth over implicit TLS or STARTTLS.
func deliverSMTP(ctx context.Context, cfg config.SMTPConfig, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))
	tlsConfig := &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w: %w", addr, err, perfdigest.ErrTransport)
	}
	if err := applyDeadline(ctx, conn); err != nil {
		conn.Close()
		return err
	}
	if cfg.TLSMode != config.TLSModeSTARTTLS {
		conn = tls.Client(conn, tlsConfig)
	}

	client, err := smtp.NewClient(conn, cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake with %s: %w: %w", addr, err, perfdigest.ErrTransport)
	}
	defer client.Close()

	if cfg.TLSMode == config.TLSModeSTARTTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return fmt.Errorf("%s does not offer STARTTLS: %w", addr, perfdigest.ErrTransport)
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starttls: %w: %w", err, perfdigest.ErrTransport)
		}
	}

	if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Server)); err != nil {
		return fmt.Errorf("smtp auth as %s: %w: %w", cfg.Username, err, perfdigest.ErrCredentials)
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w: %w", err, perfdigest.ErrTransport)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w: %w", rcpt, err, perfdigest.ErrTransport)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w: %w", err, perfdigest.ErrTransport)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write: %w: %w", err, perfdigest.ErrTransport)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp end of data: %w: %w", err, perfdigest.ErrTransport)
	}
	return client.Quit()
}

// applyDeadline bounds the whole SMTP exchange by the context deadline.
func applyDeadline(ctx context.Context, conn net.Conn) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w: %w", err, perfdigest.ErrTransport)
	}
	return nil
}
