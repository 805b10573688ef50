// Package oracle wraps the language model behind a strict JSON contract: a
// templated prompt goes in, a validated structured judgment comes out.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/trogers1052/trading-agent/internal/models"
)

var (
	// ErrParse signals that no balanced JSON object could be extracted from
	// the model response.
	ErrParse = errors.New("no JSON object found in model response")
	// ErrSchema signals that the extracted JSON does not match the contract.
	ErrSchema = errors.New("model response out of contract")
)

// Generator is the one-method abstraction over the language model call
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Judgment is the structured decision the model must return, exactly these
// six fields.
type Judgment struct {
	Decision           string `json:"decision"`
	Confidence         string `json:"confidence"`
	TechnicalSummary   string `json:"technical_summary"`
	FundamentalSummary string `json:"fundamental_summary"`
	SentimentSummary   string `json:"sentiment_summary"`
	FinalSummary       string `json:"final_summary"`
}

// Inputs holds the structured data composed into the judgment prompt
type Inputs struct {
	Symbol     string
	Exchange   string
	ClosePrice float64
	RSI        float64
	MACDDiff   float64
	// PERatio is the formatted P/E value, "N/A" for indices.
	PERatio         string
	SentimentScore  float64
	PastPerformance string
}

// Oracle turns structured inputs into validated judgments and forecasts
type Oracle struct {
	gen Generator
}

// New creates an Oracle backed by the given generator
func New(gen Generator) *Oracle {
	return &Oracle{gen: gen}
}

// Judge asks the model for a BUY/SELL/HOLD recommendation and enforces the
// response contract.
func (o *Oracle) Judge(ctx context.Context, in Inputs) (*Judgment, error) {
	raw, err := o.gen.Generate(ctx, judgmentPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("model call failed for %s: %w", in.Symbol, err)
	}

	var j Judgment
	if err := decodeContract(raw, &j); err != nil {
		return nil, err
	}
	if err := validateJudgment(&j); err != nil {
		return nil, err
	}
	return &j, nil
}

func validateJudgment(j *Judgment) error {
	switch j.Decision {
	case models.DecisionBuy, models.DecisionSell, models.DecisionHold:
	default:
		return fmt.Errorf("%w: invalid decision %q", ErrSchema, j.Decision)
	}
	switch j.Confidence {
	case models.ConfidenceLow, models.ConfidenceMedium, models.ConfidenceHigh:
	default:
		return fmt.Errorf("%w: invalid confidence %q", ErrSchema, j.Confidence)
	}
	return nil
}

// decodeContract extracts the first balanced JSON object from raw model output
// and decodes it into v, rejecting fields outside the contract.
func decodeContract(raw string, v interface{}) error {
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return ErrParse
	}
	if !json.Valid([]byte(obj)) {
		return fmt.Errorf("%w: extracted object is not valid JSON", ErrParse)
	}

	dec := json.NewDecoder(strings.NewReader(obj))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return nil
}

func judgmentPrompt(in Inputs) string {
	return fmt.Sprintf(`You are an expert financial analyst for the Indian stock market. Your goal is to provide a clear, evidence-based recommendation by following a structured reasoning process.

**Item for Analysis: %s (%s)**

**1. Quantitative Data:**
- Close Price: Rs %.2f
- RSI: %.2f
- MACD Difference: %.2f
- P/E Ratio: %s (Note: 'N/A' for indices)

**2. News & Sentiment:**
- Recent News Sentiment Score (from -1.0 to +1.0): %.2f

**3. Past Performance Feedback (Your own track record for this item):**
- %s

**Your Task: Analyze the data and provide your output as a valid JSON object only. Do not include any other text or markdown formatting.**
Follow these steps precisely:
1.  **Technical Summary:** Analyze the technical indicators. Is momentum bullish, bearish, or neutral?
2.  **Fundamental Summary:** Analyze the P/E ratio. If analyzing an index, state that this is not applicable.
3.  **Sentiment Summary:** Interpret the news sentiment. Is the market buzz positive, negative, or neutral?
4.  **Synthesis & Final Summary:** Combine all points. Acknowledge conflicting signals. State primary risks.
5.  **Final Decision:** Provide a final decision ('BUY', 'SELL', or 'HOLD') and a confidence level ('High', 'Medium', 'Low').

**JSON Output Format:**
{
    "decision": "...",
    "confidence": "...",
    "technical_summary": "...",
    "fundamental_summary": "...",
    "sentiment_summary": "...",
    "final_summary": "..."
}`,
		in.Symbol, in.Exchange, in.ClosePrice, in.RSI, in.MACDDiff,
		in.PERatio, in.SentimentScore, in.PastPerformance)
}
