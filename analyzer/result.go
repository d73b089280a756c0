// Package analyzer produces chart verdicts: it sends a validated screenshot
// to the Gemini multimodal model under a fixed instruction and schema, then
// post-processes the structured output so nothing model-authored escapes when
// the chart is not from the designated platform.
package analyzer

import (
	"errors"
	"fmt"
)

// Signal is the model's trading verdict.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalNeutral Signal = "NEUTRAL"
	SignalHold    Signal = "HOLD"
)

var validSignals = map[Signal]bool{
	SignalBuy:     true,
	SignalSell:    true,
	SignalNeutral: true,
	SignalHold:    true,
}

// ErrUpstream is returned when the model call failed or its output violated
// the schema. Never retried here: a failed upstream call fails the request.
var ErrUpstream = errors.New("analyzer: upstream model failure")

// Result is the structured verdict for one chart screenshot.
type Result struct {
	IsSourcePlatform bool     `json:"isSourcePlatform"`
	Signal           Signal   `json:"signal"`
	Pattern          string   `json:"pattern"`
	Trend            string   `json:"trend"`
	RiskReward       string   `json:"riskReward,omitempty"`
	Reasoning        string   `json:"reasoning"`
	SupportLevels    []string `json:"supportLevels"`
	ResistanceLevels []string `json:"resistanceLevels"`
	Confidence       float64  `json:"confidence"`
}

// rejectionReasoning is the explanatory text returned whenever the model
// cannot confirm the screenshot is from TrionBroker.
const rejectionReasoning = "ERRO: Gráfico não identificado. Envie um print do " +
	"gráfico dentro da plataforma TrionBroker para eu analisar."

// Rejection is the canned verdict substituted when the model reports the
// screenshot is not from the designated platform. It replaces the model
// output wholesale so a prompt-injected or partially-compliant response
// cannot leak a verdict.
func Rejection() *Result {
	return &Result{
		IsSourcePlatform: false,
		Signal:           SignalNeutral,
		Pattern:          "N/A",
		Trend:            "N/A",
		RiskReward:       "N/A",
		Reasoning:        rejectionReasoning,
		SupportLevels:    []string{},
		ResistanceLevels: []string{},
		Confidence:       0,
	}
}

// Sanitize enforces the output contract on a parsed model response. A signal
// outside the enum is a schema violation (the model is not trusted to invent
// values); confidence is clamped to [0,1]; nil level slices become empty so
// the JSON response always carries arrays.
func (r *Result) Sanitize() error {
	if !validSignals[r.Signal] {
		return fmt.Errorf("%w: invalid signal %q", ErrUpstream, r.Signal)
	}
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	if r.SupportLevels == nil {
		r.SupportLevels = []string{}
	}
	if r.ResistanceLevels == nil {
		r.ResistanceLevels = []string{}
	}
	return nil
}
