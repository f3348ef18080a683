package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/allibot/rtsbench/internal/models"
)

type recordedRequest struct {
	method      string
	path        string
	auth        string
	contentType string
	body        []byte
}

func newTestClient(t *testing.T, status int, respBody string) (*Client, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			auth:        r.Header.Get("Authorization"),
			contentType: r.Header.Get("Content-Type"),
			body:        body,
		})
		w.WriteHeader(status)
		w.Write([]byte(respBody))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{
		BaseURL: srv.URL,
		APIKey:  "secret",
		Logger:  zap.NewNop(),
	})
	return client, &requests
}

func TestClientLifecycle(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{}`)
	ctx := context.Background()

	run := &models.Run{ID: "run-1", Project: "microrts-bot-eval", State: models.RunStateRunning}
	if err := client.Start(ctx, run); err != nil {
		t.Fatalf("start: %v", err)
	}

	rec := models.MatchRecord{Index: 0, Opponent: "random", Map: "a.xml", Cycles: 100, Result: models.OutcomeWin}
	if err := client.LogMatch(ctx, rec); err != nil {
		t.Fatalf("log match: %v", err)
	}
	if err := client.LogTable(ctx, "matches", MatchTable([]models.MatchRecord{rec})); err != nil {
		t.Fatalf("log table: %v", err)
	}
	chart := BarChart{Table: "summary", Label: "opponent", Value: "win_rate", Title: "AlliBot win rate by opponent"}
	if err := client.LogChart(ctx, "win_rate", chart); err != nil {
		t.Fatalf("log chart: %v", err)
	}

	pngPath := filepath.Join(t.TempDir(), "win_rate.png")
	pngBytes := []byte("\x89PNG\r\n\x1a\nfake")
	if err := os.WriteFile(pngPath, pngBytes, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := client.LogImage(ctx, "win_rate_png", pngPath); err != nil {
		t.Fatalf("log image: %v", err)
	}

	summary := []models.OpponentSummary{{Opponent: "random", Games: 1, Wins: 1, WinRate: 1, Score: 1, AvgCycles: 100}}
	if err := client.Finish(ctx, summary); err != nil {
		t.Fatalf("finish: %v", err)
	}

	got := *requests
	wantPaths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/runs"},
		{http.MethodPost, "/api/v1/runs/run-1/log"},
		{http.MethodPost, "/api/v1/runs/run-1/tables/matches"},
		{http.MethodPost, "/api/v1/runs/run-1/charts/win_rate"},
		{http.MethodPut, "/api/v1/runs/run-1/files/win_rate_png"},
		{http.MethodPost, "/api/v1/runs/run-1/finish"},
	}
	if len(got) != len(wantPaths) {
		t.Fatalf("expected %d requests, got %d", len(wantPaths), len(got))
	}
	for i, want := range wantPaths {
		if got[i].method != want.method || got[i].path != want.path {
			t.Errorf("request %d: expected %s %s, got %s %s",
				i, want.method, want.path, got[i].method, got[i].path)
		}
		if got[i].auth != "Bearer secret" {
			t.Errorf("request %d: unexpected auth %q", i, got[i].auth)
		}
	}

	var metrics map[string]any
	if err := json.Unmarshal(got[1].body, &metrics); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if metrics["match/opponent"] != "random" || metrics["match/result_score"] != float64(1) {
		t.Errorf("unexpected metrics %v", metrics)
	}

	if got[4].contentType != "image/png" || !bytes.Equal(got[4].body, pngBytes) {
		t.Errorf("unexpected image upload %q %q", got[4].contentType, got[4].body)
	}
}

func TestClientServerError(t *testing.T) {
	client, _ := newTestClient(t, http.StatusInternalServerError, "boom")

	err := client.Start(context.Background(), &models.Run{ID: "run-1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 500") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClientRequiresStart(t *testing.T) {
	client, requests := newTestClient(t, http.StatusOK, `{}`)

	err := client.LogMatch(context.Background(), models.MatchRecord{})
	if err == nil || !strings.Contains(err.Error(), "tracker not started") {
		t.Errorf("expected not started error, got %v", err)
	}
	if len(*requests) != 0 {
		t.Errorf("expected no requests, got %d", len(*requests))
	}
}
