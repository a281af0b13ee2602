package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mail "github.com/wneessen/go-mail"

	"github.com/tomatyss/taskter/pkg/models"
)

// EmailTool implements send_email: an SMTP send via the project's stored
// email_config.json. It is registered under the name send_email only; no
// email alias is registered. Taskter has no online/offline mode
// of its own here — offline simulation for the whole agent run is decided
// one layer up, by the executor, before the provider is even contacted;
// this tool only ever runs when the executor already decided to make a
// real attempt.
type EmailTool struct {
	ConfigPath string
}

// NewEmailTool returns the send_email built-in, reading credentials from
// configPath (normally .taskter/email_config.json).
func NewEmailTool(configPath string) *EmailTool { return &EmailTool{ConfigPath: configPath} }

func (t *EmailTool) Name() string        { return "send_email" }
func (t *EmailTool) Description() string { return "Send an email via the configured SMTP server." }

func (t *EmailTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"to": {"type": "string"},
			"subject": {"type": "string"},
			"body": {"type": "string"}
		},
		"required": ["to", "subject", "body"]
	}`)
}

func (t *EmailTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		To      string `json:"to"`
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	for _, req := range []struct{ name, val string }{{"to", in.To}, {"subject", in.Subject}, {"body", in.Body}} {
		if strings.TrimSpace(req.val) == "" {
			return "", fmt.Errorf("%s is required", req.name)
		}
	}

	cfg, err := t.loadConfig()
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("Email configuration not found")
		}
		return "", err
	}

	msg := mail.NewMsg()
	if err := msg.From(cfg.Username); err != nil {
		return "", fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(in.To); err != nil {
		return "", fmt.Errorf("set to address: %w", err)
	}
	msg.Subject(in.Subject)
	msg.SetBodyString(mail.TypeTextPlain, in.Body)

	client, err := mail.NewClient(cfg.SMTPServer,
		mail.WithPort(cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return "", fmt.Errorf("configure smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	return fmt.Sprintf("email sent to %s", in.To), nil
}

func (t *EmailTool) loadConfig() (models.EmailConfig, error) {
	var cfg models.EmailConfig
	path := t.ConfigPath
	if path == "" {
		path = filepath.Join(".taskter", "email_config.json")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode email_config.json: %w", err)
	}
	return cfg, nil
}
