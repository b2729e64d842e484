//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestRunOnceDeliversToTelegramAndMailpit runs the binary for a single cycle
// against a local feed, a fake Bot API and a running mailpit instance.
func TestRunOnceDeliversToTelegramAndMailpit(t *testing.T) {
	if os.Getenv("FEEDWATCH_E2E") == "" {
		t.Skip("set FEEDWATCH_E2E=1 to enable e2e tests")
	}

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("find repo root: %v", err)
	}
	apiBase := strings.TrimRight(getenv("MAILPIT_API_BASE", "http://localhost:8025"), "/")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	waitForHTTP200(t, ctx, apiBase+"/api/v1/messages")

	runID := fmt.Sprintf("%d-%d", time.Now().Unix(), rand.IntN(1_000_000))

	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		_, _ = io.WriteString(w, strings.ReplaceAll(rssFixtureXML, "__RUN_ID__", runID))
	}))
	t.Cleanup(feedServer.Close)

	var mu sync.Mutex
	var telegramTexts []string
	telegramServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ChatID string `json:"chat_id"`
			Text   string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		telegramTexts = append(telegramTexts, body.Text)
		mu.Unlock()
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	t.Cleanup(telegramServer.Close)

	docFile := filepath.Join(t.TempDir(), "feedwatch.yaml")
	doc := strings.ReplaceAll(documentFixtureYAML, "__RUN_ID__", runID)
	if err := os.WriteFile(docFile, []byte(doc), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/feedwatch", "-config", docFile, "-run-once")
	cmd.Dir = repoRoot
	cmd.Env = append(os.Environ(),
		"FEED_URL="+feedServer.URL+"/feed.xml",
		"TELEGRAM_BOT_TOKEN=123:e2e",
		"TELEGRAM_CHAT_ID=42",
		"TELEGRAM_API_BASE="+telegramServer.URL,
		"SMTP_HOST=localhost",
		"SMTP_PORT=1025",
		"SMTP_TLS_MODE=disabled",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("feedwatch run failed: %v\n%s", err, out)
	}

	mu.Lock()
	gotTexts := append([]string(nil), telegramTexts...)
	mu.Unlock()
	if len(gotTexts) != 1 || !strings.HasPrefix(gotTexts[0], "Title: E2E story "+runID+"\n") {
		t.Fatalf("unexpected telegram messages: %q", gotTexts)
	}

	msgID := waitForMailpitMessageID(t, ctx, apiBase, runID)
	var msg mailpitMessage
	if err := json.Unmarshal(mustHTTPGet(t, ctx, apiBase+"/api/v1/message/"+msgID), &msg); err != nil {
		t.Fatalf("parse message json: %v", err)
	}
	if !strings.Contains(msg.HTML, "deterministic item") {
		t.Fatalf("expected stripped description in email body, got %q", msg.HTML)
	}
}

const rssFixtureXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>feedwatch e2e</title>
    <link>http://localhost/</link>
    <description>Local feed for e2e.</description>
    <item>
      <title>E2E story __RUN_ID__</title>
      <link>http://localhost/item-1</link>
      <guid>feedwatch-e2e-__RUN_ID__</guid>
      <description><![CDATA[<p>A <b>deterministic item</b> for local testing.</p>]]></description>
    </item>
  </channel>
</rss>`

const documentFixtureYAML = `name: e2e
schedule:
  interval: 1m
notify:
  telegram: {}
  email:
    to: "dev@example.com"
    from: "feedwatch@example.com"
    subject_prefix: "[e2e __RUN_ID__] "
`

type mailpitMessagesResponse struct {
	Messages []struct {
		ID      string `json:"ID"`
		Subject string `json:"Subject"`
	} `json:"messages"`
}

type mailpitMessage struct {
	Subject string `json:"Subject"`
	HTML    string `json:"HTML"`
}

func waitForMailpitMessageID(t *testing.T, ctx context.Context, apiBase string, runID string) string {
	t.Helper()

	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		var res mailpitMessagesResponse
		_ = json.Unmarshal(mustHTTPGet(t, ctx, apiBase+"/api/v1/messages"), &res)
		for _, m := range res.Messages {
			if strings.Contains(m.Subject, runID) && m.ID != "" {
				return m.ID
			}
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for mailpit message with run id %q", runID)
	return ""
}

func waitForHTTP200(t *testing.T, ctx context.Context, url string) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Skipf("mailpit not reachable at %s", url)
}

func mustHTTPGet(t *testing.T, ctx context.Context, url string) []byte {
	t.Helper()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		t.Fatalf("GET %s: status=%d body=%s", url, resp.StatusCode, body)
	}
	return body
}

func findRepoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		next := filepath.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
	return "", errors.New("go.mod not found in parent directories")
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
