package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/nexustrade/nexusd/analyzer"
	"github.com/nexustrade/nexusd/history"
)

func TestHistory_NoToken(t *testing.T) {
	e := newEnv(t, "KEY")
	w := doJSON(t, e.handler, "GET", "/api/history", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d", w.Code)
	}
}

func TestHistory_FreePlanCanRead(t *testing.T) {
	e := newEnv(t, "KEY")
	addFree(e, "tok")

	w := doJSON(t, e.handler, "GET", "/api/history", "tok", "")
	if w.Code != http.StatusOK {
		t.Fatalf("history is auth-gated, not plan-gated: got %d", w.Code)
	}
}

func TestHistory_ReturnsOwnItems(t *testing.T) {
	e := newEnv(t, "KEY")
	addPro(e, "tok")

	ctx := context.Background()
	result := &analyzer.Result{IsSourcePlatform: true, Signal: analyzer.SignalSell, SupportLevels: []string{}, ResistanceLevels: []string{}}
	e.history.Add(ctx, "pro1", "https://example.com/pro1/1.webp", result)
	e.history.Add(ctx, "someone-else", "", result)

	w := doJSON(t, e.handler, "GET", "/api/history", "tok", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	var items []history.Item
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Result.Signal != analyzer.SignalSell {
		t.Errorf("signal: %q", items[0].Result.Signal)
	}
}

func TestHistory_PostNotAllowed(t *testing.T) {
	e := newEnv(t, "KEY")
	w := doJSON(t, e.handler, "POST", "/api/history", "", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("got %d", w.Code)
	}
}
