// Package mailer composes the HTML run report and sends it with the chart
// embedded inline.
package mailer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vvka-141/perfdigest/internal/config"
	"github.com/vvka-141/perfdigest/pkg/perfdigest"
)

// Mailer sends one report per Send call. There is no retry.
type Mailer struct {
	cfg        config.SMTPConfig
	logger     perfdigest.Logger
	deliver    deliverFunc
	dryRunPath string
	now        func() time.Time
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithDryRun writes the composed message to path instead of sending it.
func WithDryRun(path string) Option {
	return func(m *Mailer) { m.dryRunPath = path }
}

func New(cfg config.SMTPConfig, logger perfdigest.Logger, opts ...Option) *Mailer {
	m := &Mailer{
		cfg:     cfg,
		logger:  logger,
		deliver: deliverSMTP,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send renders report, attaches the PNG at chartPath inline and delivers it
// to every configured recipient.
func (m *Mailer) Send(ctx context.Context, report Report, chartPath string) error {
	msg, err := m.Build(report, chartPath)
	if err != nil {
		return err
	}

	if m.dryRunPath != "" {
		if err := os.WriteFile(m.dryRunPath, msg, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", m.dryRunPath, err)
		}
		m.logger.Info("Dry run: report written to %s", m.dryRunPath)
		return nil
	}

	m.logger.Verbose("Sending report to %d recipient(s) via %s:%d", len(m.cfg.RecipientEmails), m.cfg.Server, m.cfg.Port)
	if err := m.deliver(ctx, m.cfg, m.cfg.SenderEmail, m.cfg.RecipientEmails, msg); err != nil {
		return err
	}
	m.logger.Info("Email sent successfully.")
	return nil
}

// Build composes the complete MIME message.
func (m *Mailer) Build(report Report, chartPath string) ([]byte, error) {
	html, err := RenderHTML(report)
	if err != nil {
		return nil, err
	}

	img, err := os.ReadFile(chartPath)
	if err != nil {
		return nil, fmt.Errorf("read chart: %w", err)
	}

	return Compose(Envelope{
		From:      m.cfg.SenderEmail,
		To:        m.cfg.RecipientEmails,
		Subject:   report.Subject,
		Date:      m.now(),
		MessageID: uuid.NewString() + "@perfdigest",
	}, html, InlineImage{
		Filename:  filepath.Base(chartPath),
		ContentID: perfdigest.ChartContentID,
		Data:      img,
	})
}
