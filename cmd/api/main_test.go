package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/goflow/backend/internal/config"
)

func TestWarnMemoryMode(t *testing.T) {
	cases := []struct {
		name        string
		webhookURL  string
		wantWebhook bool
	}{
		{"no webhook", "", false},
		{"webhook without database", "http://hooks.local/ledger", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := slog.New(slog.NewTextHandler(&buf, nil))
			warnMemoryMode(log, &config.Config{WebhookURL: tc.webhookURL})

			out := buf.String()
			if !strings.Contains(out, "in-memory store") {
				t.Errorf("missing memory store warning: %q", out)
			}
			if got := strings.Contains(out, "WEBHOOK_URL ignored"); got != tc.wantWebhook {
				t.Errorf("webhook warning: got %v, want %v (%q)", got, tc.wantWebhook, out)
			}
		})
	}
}
