package api

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestActivate_NoToken(t *testing.T) {
	e := newEnv(t, "NX-NEXUS-TRADE")
	w := doJSON(t, e.handler, "POST", "/api/activate", "", `{"licenseKey":"NX-NEXUS-TRADE"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d", w.Code)
	}
}

func TestActivate_InvalidToken(t *testing.T) {
	e := newEnv(t, "NX-NEXUS-TRADE")
	w := doJSON(t, e.handler, "POST", "/api/activate", "forged", `{"licenseKey":"NX-NEXUS-TRADE"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d", w.Code)
	}
}

func TestActivate_BadBody(t *testing.T) {
	e := newEnv(t, "NX-NEXUS-TRADE")
	addFree(e, "tok")

	cases := []struct {
		name string
		body string
	}{
		{"malformed", `{"licenseKey":`},
		{"missing", `{}`},
		{"blank", `{"licenseKey":"   "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, e.handler, "POST", "/api/activate", "tok", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("got %d", w.Code)
			}
		})
	}
}

func TestActivate_WrongKey(t *testing.T) {
	e := newEnv(t, "NX-NEXUS-TRADE")
	addFree(e, "tok")

	w := doJSON(t, e.handler, "POST", "/api/activate", "tok", `{"licenseKey":"NX-WRONG"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("got %d", w.Code)
	}

	p, _ := e.resolver.Resolve(t.Context(), "tok")
	if p.Plan != "free" {
		t.Errorf("plan must stay free after a wrong key, got %q", p.Plan)
	}
}

func TestActivate_NormalizedKeyFlipsPlan(t *testing.T) {
	e := newEnv(t, "NX-NEXUS-TRADE")
	addFree(e, "tok")

	w := doJSON(t, e.handler, "POST", "/api/activate", "tok", `{"licenseKey":" nx-nexus-trade "}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got %d: %s", w.Code, w.Body.String())
	}

	var res map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res["ok"] {
		t.Errorf("expected ok:true, got %v", res)
	}

	p, err := e.resolver.Resolve(t.Context(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if p.Plan != "pro" {
		t.Errorf("plan: got %q", p.Plan)
	}
}

func TestActivate_Idempotent(t *testing.T) {
	e := newEnv(t, "NX-NEXUS-TRADE")
	addFree(e, "tok")

	for i := 0; i < 2; i++ {
		w := doJSON(t, e.handler, "POST", "/api/activate", "tok", `{"licenseKey":"NX-NEXUS-TRADE"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("call %d: got %d", i+1, w.Code)
		}
	}

	p, _ := e.resolver.Resolve(t.Context(), "tok")
	if p.Plan != "pro" {
		t.Errorf("plan after repeat activation: %q", p.Plan)
	}
}

func TestActivate_MissingServerSecret(t *testing.T) {
	e := newEnv(t, "")
	addFree(e, "tok")

	w := doJSON(t, e.handler, "POST", "/api/activate", "tok", `{"licenseKey":"anything"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got %d", w.Code)
	}
}

func TestActivate_ConfigGateBeforeAuth(t *testing.T) {
	e := newEnv(t, "")

	// Even an unknown token gets the misconfiguration answer: the config
	// gate fires before the token is looked at.
	w := doJSON(t, e.handler, "POST", "/api/activate", "forged", `{"licenseKey":"anything"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("got %d, want 500", w.Code)
	}
	if e.resolver.resolves != 0 {
		t.Errorf("identity provider consulted %d times on a misconfigured server", e.resolver.resolves)
	}

	w = doJSON(t, e.handler, "POST", "/api/activate", "", `{"licenseKey":"anything"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("missing token: got %d, want 500", w.Code)
	}
}
