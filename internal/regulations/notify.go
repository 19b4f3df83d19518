package regulations

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"log/slog"
	"sync/atomic"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/reactit/kycdesk/pkg/mail"
)

//go:embed templates/notification.html
var templateFS embed.FS

var notificationTemplate = template.Must(template.ParseFS(templateFS, "templates/notification.html"))

const subjectPrefix = "New Important Regulation: "

type notificationVars struct {
	Title   string
	Name    string
	Content template.HTML
	Link    string
}

// Notifier delivers regulation emails with at most concurrency sends in
// flight.
type Notifier struct {
	sender      mail.System
	concurrency int
	policy      *bluemonday.Policy
	logger      *slog.Logger
}

func NewNotifier(sender mail.System, concurrency int, logger *slog.Logger) *Notifier {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Notifier{
		sender:      sender,
		concurrency: concurrency,
		policy:      bluemonday.UGCPolicy(),
		logger:      logger.With("component", "notifier"),
	}
}

// Send emails every recipient and returns the sent and failed counts.
func (n *Notifier) Send(ctx context.Context, reg Regulation, recipients []Recipient) (sent, failed int) {
	var content, link string
	if reg.Content != nil {
		content = n.policy.Sanitize(*reg.Content)
	}
	if reg.SourceURL != nil {
		link = *reg.SourceURL
	}

	var okCount, failCount atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(n.concurrency)

	for _, rcpt := range recipients {
		g.Go(func() error {
			html, err := render(notificationVars{
				Title:   reg.Title,
				Name:    rcpt.Name,
				Content: template.HTML(content),
				Link:    link,
			})
			if err == nil {
				err = n.sender.Send(ctx, mail.Message{
					To:      rcpt.Email,
					Subject: subjectPrefix + reg.Title,
					HTML:    html,
				})
			}
			if err != nil {
				failCount.Add(1)
				n.logger.Warn("regulation email failed", "regulation_id", reg.ID, "to", rcpt.Email, "error", err)
				return nil
			}
			okCount.Add(1)
			return nil
		})
	}
	g.Wait()

	return int(okCount.Load()), int(failCount.Load())
}

func render(vars notificationVars) (string, error) {
	var buf bytes.Buffer
	if err := notificationTemplate.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
