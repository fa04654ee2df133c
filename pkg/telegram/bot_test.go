package telegram_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"ci-integration-agent/pkg/telegram"
)

func TestBot(t *testing.T) {
	var lastText string
	var lastMode string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if strings.HasSuffix(path, "/getMe") {
			w.Write([]byte(`{"ok": true, "result": {"id": 42, "is_bot": true, "first_name": "CI", "username": "ci_bot"}}`))
			return
		}

		if strings.HasSuffix(path, "/sendMessage") {
			var req map[string]interface{}
			json.NewDecoder(r.Body).Decode(&req)
			text := req["text"].(string)
			lastText = text
			lastMode, _ = req["parse_mode"].(string)

			if text == "cause_error" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"ok": false, "description": "invalid text"}`))
				return
			}
			if text == "cause_500" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"ok": true}`))
			return
		}

		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	ctx := context.Background()
	bot := telegram.NewBot("test-token")
	bot.SetAPIURL(ts.URL) // Route commands to test server instead of api.telegram.org

	t.Run("GetMe", func(t *testing.T) {
		me, err := bot.GetMe(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if me.Username != "ci_bot" || !me.IsBot {
			t.Errorf("unexpected user: %+v", me)
		}
	})

	t.Run("SendMessage Success", func(t *testing.T) {
		if err := bot.SendMessage(ctx, 12345, "Hello"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lastMode != "" {
			t.Errorf("parse_mode should be omitted, got %q", lastMode)
		}
	})

	t.Run("SendMessageWithMode Success", func(t *testing.T) {
		if err := bot.SendMessageWithMode(ctx, 12345, "*Hello*", "Markdown"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if lastMode != "Markdown" {
			t.Errorf("parse_mode = %q", lastMode)
		}
	})

	t.Run("Long messages are truncated", func(t *testing.T) {
		if err := bot.SendMessage(ctx, 12345, strings.Repeat("é", telegram.MaxMessageLength+50)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n := utf8.RuneCountInString(lastText); n != telegram.MaxMessageLength {
			t.Errorf("sent %d runes, want %d", n, telegram.MaxMessageLength)
		}
	})

	t.Run("SendMessage API Failed", func(t *testing.T) {
		err := bot.SendMessage(ctx, 12345, "cause_error")
		var apiErr *telegram.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got: %v", err)
		}
		if apiErr.StatusCode != http.StatusBadRequest || apiErr.Description != "invalid text" {
			t.Errorf("unexpected api error: %+v", apiErr)
		}
	})

	t.Run("SendMessage HTTP Failed", func(t *testing.T) {
		if err := bot.SendMessage(ctx, 12345, "cause_500"); err == nil {
			t.Fatalf("expected http decoding error")
		}
	})

	t.Run("Cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if err := bot.SendMessage(cctx, 12345, "Hello"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("Invalid API URL logic", func(t *testing.T) {
		badBot := telegram.NewBot("test")
		badBot.SetAPIURL("http://invalid-url.local:1234")
		if err := badBot.SendMessage(ctx, 12345, "fail"); err == nil {
			t.Errorf("expected network failure on invalid domain")
		}
	})
}
