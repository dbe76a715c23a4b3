package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	From        string
	EmailOn     bool
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer, from string, emailOn bool) *Service {
	return &Service{store: store, Mailer: mailer, From: from, EmailOn: emailOn, DefaultFrom: "no-reply@example.com"}
}

// Post records a notification for the user and best-effort emails it.
// Storage failure is returned; email failure is only logged so a flaky
// SMTP relay never fails the calling workflow.
func (s *Service) Post(ctx context.Context, userID, subject, body string) error {
	if userID == "" {
		return nil
	}
	if err := s.store.CreateNotification(ctx, userID, subject, body); err != nil {
		return err
	}

	if s.Mailer == nil || !s.EmailOn {
		return nil
	}
	from := s.From
	if from == "" {
		from = s.DefaultFrom
	}

	email, err := s.store.UserEmail(ctx, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, from, email, subject, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit, offset)
}

func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}
