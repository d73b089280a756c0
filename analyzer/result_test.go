package analyzer

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSanitize_RejectsUnknownSignal(t *testing.T) {
	for _, bad := range []Signal{"", "buy", "STRONG_BUY", "LONG"} {
		r := &Result{Signal: bad}
		if err := r.Sanitize(); !errors.Is(err, ErrUpstream) {
			t.Errorf("signal %q: expected ErrUpstream, got %v", bad, err)
		}
	}
}

func TestSanitize_AcceptsEnum(t *testing.T) {
	for _, ok := range []Signal{SignalBuy, SignalSell, SignalNeutral, SignalHold} {
		r := &Result{Signal: ok}
		if err := r.Sanitize(); err != nil {
			t.Errorf("signal %q: %v", ok, err)
		}
	}
}

func TestSanitize_ClampsConfidence(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-0.5, 0},
		{0, 0},
		{0.87, 0.87},
		{1, 1},
		{3.2, 1},
	}
	for _, tc := range cases {
		r := &Result{Signal: SignalBuy, Confidence: tc.in}
		if err := r.Sanitize(); err != nil {
			t.Fatal(err)
		}
		if r.Confidence != tc.want {
			t.Errorf("confidence %v: got %v, want %v", tc.in, r.Confidence, tc.want)
		}
	}
}

func TestSanitize_NilLevelsBecomeEmpty(t *testing.T) {
	r := &Result{Signal: SignalSell}
	if err := r.Sanitize(); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("level slices must serialize as arrays: %s", data)
	}
}

func TestRejection_Shape(t *testing.T) {
	r := Rejection()
	if r.IsSourcePlatform {
		t.Error("rejection must report isSourcePlatform=false")
	}
	if r.Signal != SignalNeutral {
		t.Errorf("signal: got %q", r.Signal)
	}
	if r.Confidence != 0 {
		t.Errorf("confidence: got %v", r.Confidence)
	}
	if len(r.SupportLevels) != 0 || len(r.ResistanceLevels) != 0 {
		t.Error("rejection must carry empty level lists")
	}
	if !strings.HasPrefix(r.Reasoning, "ERRO:") {
		t.Errorf("reasoning must be the explanatory error text, got %q", r.Reasoning)
	}
}
