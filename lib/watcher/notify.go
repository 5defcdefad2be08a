package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Event is one observed state transition.
type Event struct {
	Time     time.Time
	Product  string
	Url      string
	Previous string
	Current  string
}

type SmtpConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	To           []string `json:"to"`
}

type NotificationConfig struct {
	Enabled bool       `json:"enabled"`
	LogFile string     `json:"log_file"`
	Sound   bool       `json:"sound"`
	Smtp    SmtpConfig `json:"smtp"`
}

// Notifier fans an event out to the console, the terminal bell, the
// alert log and optionally email. The console alert always prints;
// everything else sits behind the enabled switch. Channel failures are
// downgraded to warnings, an alert must never take down the watch.
type Notifier struct {
	config NotificationConfig
}

func NewNotifier(config NotificationConfig) Notifier {
	return Notifier{config: config}
}

func (n Notifier) Notify(ctx context.Context, event Event) {
	ctx, span := tracer.Start(ctx, "Notify")
	defer span.End()
	span.SetAttributes(
		attribute.String("product", event.Product),
		attribute.String("previous", event.Previous),
		attribute.String("current", event.Current),
	)

	n.printAlert(event)
	if !n.config.Enabled {
		return
	}
	if n.config.Sound {
		n.playSound(ctx, event)
	}
	if n.config.LogFile != "" {
		n.appendLog(ctx, event)
	}
	if n.config.Smtp.Server != "" {
		n.sendEmail(ctx, event)
	}
}

// truncate counts runes, not bytes, so multibyte product names are
// never cut mid character.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

func (n Notifier) printAlert(event Event) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("CHANGE ALERT")
	t.AppendRow(table.Row{"product", truncate(event.Product, 40)})
	t.AppendRow(table.Row{"was", event.Previous})
	t.AppendRow(table.Row{"now", event.Current})
	t.AppendRow(table.Row{"url", truncate(event.Url, 50)})
	t.AppendRow(table.Row{"at", event.Time.Format(time.DateTime)})
	t.Render()
}

// playSound rings the terminal bell and, on macOS, speaks the alert.
func (n Notifier) playSound(ctx context.Context, event Event) {
	fmt.Print("\a\a\a")

	if runtime.GOOS != "darwin" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	message := fmt.Sprintf("Alert! %s is now %s!", event.Product, spoken(event.Current))
	err := exec.CommandContext(ctx, "say", message).Run()
	if err != nil {
		slog.DebugContext(ctx, "say command failed", "err", err)
	}
}

func spoken(value string) string {
	return strings.ToLower(strings.ReplaceAll(value, "_", " "))
}

// appendLog adds one tab separated line per event so the history file
// stays grep friendly.
func (n Notifier) appendLog(ctx context.Context, event Event) {
	f, err := os.OpenFile(n.config.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		slog.WarnContext(ctx, "failed to open alert log", "path", n.config.LogFile, "err", err)
		return
	}
	defer f.Close()

	line := fmt.Sprintf(
		"%s\t%s\t%s -> %s\t%s\n",
		event.Time.Format(time.DateTime),
		event.Product,
		event.Previous,
		event.Current,
		event.Url,
	)
	_, err = f.WriteString(line)
	if err != nil {
		slog.WarnContext(ctx, "failed to append to alert log", "path", n.config.LogFile, "err", err)
	}
}

func (n Notifier) sendEmail(ctx context.Context, event Event) {
	ctx, span := tracer.Start(ctx, "sendEmail")
	defer span.End()

	config := n.config.Smtp

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Shelfwatch <%s>", config.EmailAddress)
	mail.To = config.To
	mail.Subject = fmt.Sprintf("%s: %s", event.Product, event.Current)

	body := fmt.Sprintf(`%s changed at %s.

%s -> %s

%s`,
		event.Product,
		event.Time.Format(time.DateTime),
		event.Previous,
		event.Current,
		event.Url,
	)
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", config.Server, config.Port)
	err := mail.Send(addr, smtp.PlainAuth("", config.EmailAddress, config.Password, config.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		slog.WarnContext(ctx, "failed to send alert email", "err", err)
		return
	}
	slog.InfoContext(ctx, "sent alert email", "to", config.To)
}
