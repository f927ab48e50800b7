package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/google/uuid"
	"github.com/resend/resend-go/v3"

	"kisah-comments/internal/config"
)

//go:embed templates/*.html
var templates embed.FS

type Service interface {
	SendNewCommentEmail(ctx context.Context, msg CommentEmail) error
	SendReplyEmail(ctx context.Context, msg CommentEmail) error
	SendCommentLikedEmail(ctx context.Context, msg CommentEmail) error
}

// CommentEmail carries everything the comment templates render.
type CommentEmail struct {
	ToEmail       string
	RecipientName string
	ActorName     string
	SubjectID     uuid.UUID
	SubjectTitle  string
	CommentID     uuid.UUID
	Excerpt       string
}

type sendFunc func(params *resend.SendEmailRequest) error

type service struct {
	send   sendFunc
	config *config.Config
}

func NewService(cfg *config.Config) Service {
	if cfg.ResendAPIKey == "" {
		return newService(cfg, nil)
	}
	client := resend.NewClient(cfg.ResendAPIKey)
	return newService(cfg, func(params *resend.SendEmailRequest) error {
		_, err := client.Emails.Send(params)
		return err
	})
}

func newService(cfg *config.Config, send sendFunc) *service {
	return &service{send: send, config: cfg}
}

func (s *service) sendEmail(ctx context.Context, toEmail, subject, templateName string, data interface{}) error {
	tmpl, err := template.ParseFS(templates, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		return fmt.Errorf("failed to parse email templates: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout.html", data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	if s.send == nil {
		slog.DebugContext(ctx, "email delivery disabled", "to", toEmail, "subject", subject)
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Kisah <%s>", s.config.FromEmail),
		To:      []string{toEmail},
		Html:    body.String(),
		Subject: subject,
	}
	return s.send(params)
}

type templateData struct {
	Title        string
	Name         string
	ActorName    string
	SubjectTitle string
	Excerpt      string
	Link         string
}

func (s *service) data(title string, msg CommentEmail) templateData {
	return templateData{
		Title:        title,
		Name:         msg.RecipientName,
		ActorName:    msg.ActorName,
		SubjectTitle: msg.SubjectTitle,
		Excerpt:      msg.Excerpt,
		Link:         fmt.Sprintf("https://%s/stories/%s#comment-%s", s.config.Domain, msg.SubjectID, msg.CommentID),
	}
}

func (s *service) SendNewCommentEmail(ctx context.Context, msg CommentEmail) error {
	return s.sendEmail(ctx, msg.ToEmail,
		fmt.Sprintf("New comment on %s", msg.SubjectTitle),
		"new_comment.html", s.data("New comment", msg))
}

func (s *service) SendReplyEmail(ctx context.Context, msg CommentEmail) error {
	return s.sendEmail(ctx, msg.ToEmail,
		fmt.Sprintf("%s replied to you", msg.ActorName),
		"comment_reply.html", s.data("New reply", msg))
}

func (s *service) SendCommentLikedEmail(ctx context.Context, msg CommentEmail) error {
	return s.sendEmail(ctx, msg.ToEmail,
		fmt.Sprintf("%s liked your comment", msg.ActorName),
		"comment_liked.html", s.data("Your comment was liked", msg))
}
