package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"agora/internal/config"
)

func run(t *testing.T, cfg *config.Client, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVoteSignedOutMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	out, err := run(t, &config.Client{ServerURL: srv.URL, SessionName: "agora_session"}, "vote", "up", "1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(out, "sign in to vote") {
		t.Errorf("Expected sign-in hint, got %q", out)
	}
	if hits.Load() != 0 {
		t.Errorf("Expected no requests, got %d", hits.Load())
	}
}

func TestVoteRejectsBadArgs(t *testing.T) {
	cfg := &config.Client{ServerURL: "http://127.0.0.1:0", SessionName: "agora_session", Session: "x"}
	if _, err := run(t, cfg, "vote", "sideways", "1"); err == nil {
		t.Error("Expected error for bad direction")
	}
	if _, err := run(t, cfg, "vote", "up", "abc"); err == nil {
		t.Error("Expected error for bad id")
	}
}

func TestFeedPrintsPosts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/places/general/posts" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":3,"title":"Hello","domain":"go.dev","score":7,"userVote":1,"place":{"slug":"general"}}]`))
	}))
	defer srv.Close()

	out, err := run(t, &config.Client{ServerURL: srv.URL, SessionName: "agora_session"}, "feed", "--place", "general")
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if !strings.Contains(out, "Hello (go.dev)") || !strings.Contains(out, "up") {
		t.Errorf("Unexpected output %q", out)
	}
}
