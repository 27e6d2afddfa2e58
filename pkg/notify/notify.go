// Package notify sends best-effort notifications about finished crew runs.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	ntfy "github.com/go-pkgz/notify"
)

// result statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Params holds configuration for creating a notification Service.
type Params struct {
	Channels      []string
	OnError       bool
	OnComplete    bool
	TimeoutMs     int
	TelegramToken string
	TelegramChat  string
	SlackToken    string
	SlackChannel  string
	WebhookURLs   []string
	CustomScript  string
}

// Service sends notifications through the configured channels.
type Service struct {
	channels   []channel
	custom     *customChannel
	onError    bool
	onComplete bool
	timeoutMs  int
	hostname   string
	log        logger
}

// channel pairs a notifier with its destination URI.
type channel struct {
	notifier   ntfy.Notifier
	dest       string
	htmlEscape bool // telegram uses HTML parse mode
}

type logger interface {
	Warn(format string, args ...any)
}

// Result holds run data for notifications. It is also the JSON document piped to a custom script.
type Result struct {
	Status   string `json:"status"` // StatusSuccess or StatusFailure
	SheetURL string `json:"sheet_url"`
	Process  string `json:"process,omitempty"`
	Agents   int    `json:"agents"`
	Tasks    int    `json:"tasks"`
	Duration string `json:"duration"`
	Output   string `json:"output,omitempty"` // final crew output, shortened in messages
	Error    string `json:"error,omitempty"`
}

// outputPreview is the number of runes of the crew output included in a message.
const outputPreview = 300

const defaultTimeoutMs = 10000

// builders make the channels of one configured channel name. "custom" is handled by New.
var builders = map[string]func(p Params, log logger) ([]channel, error){
	"telegram": telegramChannels,
	"slack":    slackChannels,
	"webhook":  webhookChannels,
}

// New creates a notification Service from the given Params.
// returns nil, nil if no channels are configured; Send is nil-safe.
func New(p Params, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // no channels configured, callers rely on nil-safe Send
	}

	svc := &Service{onError: p.OnError, onComplete: p.OnComplete, timeoutMs: p.TimeoutMs, hostname: "unknown", log: log}
	if h, err := os.Hostname(); err == nil {
		svc.hostname = h
	}
	if svc.timeoutMs <= 0 {
		svc.timeoutMs = defaultTimeoutMs
	}

	for _, raw := range p.Channels {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "custom" {
			if p.CustomScript == "" {
				return nil, errors.New("custom channel: notify_custom_script is required")
			}
			svc.custom = newCustomChannel(p.CustomScript)
			continue
		}
		build, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown notification channel: %q", raw)
		}
		chs, err := build(p, log)
		if err != nil {
			return nil, fmt.Errorf("%s channel: %w", name, err)
		}
		svc.channels = append(svc.channels, chs...)
	}

	if len(svc.channels) == 0 && svc.custom == nil {
		log.Warn("all notification channels were disabled due to initialization errors")
	}
	return svc, nil
}

// Send sends a notification for the given result, honoring the onError/onComplete switches.
// errors are logged, never returned.
func (s *Service) Send(ctx context.Context, r Result) {
	if s == nil {
		return
	}
	if r.Status == StatusSuccess && !s.onComplete {
		return
	}
	if r.Status == StatusFailure && !s.onError {
		return
	}

	msg := s.formatMessage(r)

	// the run context may already be canceled by a signal, the notification still gets its own timeout
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Duration(s.timeoutMs)*time.Millisecond)
	defer cancel()

	for _, ch := range s.channels {
		text := msg
		if ch.htmlEscape {
			text = html.EscapeString(msg)
		}
		if err := ch.notifier.Send(sendCtx, ch.dest, text); err != nil {
			s.log.Warn("notification failed for %s: %v", ch.notifier, err)
		}
	}

	if s.custom != nil {
		if err := s.custom.send(sendCtx, r); err != nil {
			s.log.Warn("custom notification failed: %v", err)
		}
	}
}

// formatMessage creates a plain text notification message from the result.
func (s *Service) formatMessage(r Result) string {
	var b strings.Builder

	if r.Status == StatusSuccess {
		fmt.Fprintf(&b, "crewsheet completed on %s\n", s.hostname)
	} else {
		fmt.Fprintf(&b, "crewsheet failed on %s\n", s.hostname)
	}
	b.WriteString("\n")

	if r.SheetURL != "" {
		fmt.Fprintf(&b, "sheet:    %s\n", r.SheetURL)
	}
	if r.Process != "" {
		fmt.Fprintf(&b, "process:  %s\n", r.Process)
	}
	if r.Agents > 0 || r.Tasks > 0 {
		fmt.Fprintf(&b, "crew:     %d agents, %d tasks\n", r.Agents, r.Tasks)
	}
	if r.Duration != "" {
		fmt.Fprintf(&b, "duration: %s\n", r.Duration)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "error:    %s\n", r.Error)
	}
	if r.Status == StatusSuccess && r.Output != "" {
		fmt.Fprintf(&b, "\n%s\n", preview(r.Output, outputPreview))
	}

	return b.String()
}

func preview(s string, limit int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

// telegramChannelMaker creates a telegram notifier and destination.
// overridden in tests to avoid live API calls.
var telegramChannelMaker = makeTelegramChannel

// telegramChannels skips the channel when the bot API can't be reached, the run goes on without it.
func telegramChannels(p Params, log logger) ([]channel, error) {
	switch {
	case p.TelegramToken == "":
		return nil, errors.New("notify_telegram_token is required")
	case p.TelegramChat == "":
		return nil, errors.New("notify_telegram_chat is required")
	}
	c, err := telegramChannelMaker(p)
	if err != nil {
		log.Warn("telegram channel disabled: %s", strings.ReplaceAll(err.Error(), p.TelegramToken, "[REDACTED]"))
		return nil, nil
	}
	return []channel{c}, nil
}

func makeTelegramChannel(p Params) (channel, error) {
	tg, err := ntfy.NewTelegram(ntfy.TelegramParams{Token: p.TelegramToken})
	if err != nil {
		return channel{}, fmt.Errorf("create telegram notifier: %w", err)
	}
	return channel{notifier: tg, dest: "telegram:" + p.TelegramChat + "?parseMode=HTML", htmlEscape: true}, nil
}

func slackChannels(p Params, _ logger) ([]channel, error) {
	switch {
	case p.SlackToken == "":
		return nil, errors.New("notify_slack_token is required")
	case p.SlackChannel == "":
		return nil, errors.New("notify_slack_channel is required")
	}
	return []channel{{notifier: ntfy.NewSlack(p.SlackToken), dest: "slack:" + p.SlackChannel}}, nil
}

// webhookChannels makes one channel per url, all sharing a single webhook notifier.
func webhookChannels(p Params, _ logger) ([]channel, error) {
	if len(p.WebhookURLs) == 0 {
		return nil, errors.New("notify_webhook_urls is required")
	}
	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	chs := make([]channel, len(p.WebhookURLs))
	for i, u := range p.WebhookURLs {
		chs[i] = channel{notifier: wh, dest: u}
	}
	return chs, nil
}
