package engine

// ModelPricing is the per-million-token input/output cost for one
// model, ported from graph/cost.go's ModelPricing/defaultModelPricing.
type ModelPricing struct {
	InputPer1M  float64
	OutputPer1M float64
}

// DefaultModelPricing is a static pricing table for the providers
// wired into this module's model adapters (anthropic/openai/google).
// Prices are USD per 1M tokens, as of the teacher's pricing snapshot.
var DefaultModelPricing = map[string]ModelPricing{
	"gpt-4o":         {InputPer1M: 2.50, OutputPer1M: 10.00},
	"gpt-4o-mini":    {InputPer1M: 0.15, OutputPer1M: 0.60},
	"gpt-4-turbo":    {InputPer1M: 10.00, OutputPer1M: 30.00},
	"gpt-3.5-turbo":  {InputPer1M: 0.50, OutputPer1M: 1.50},

	"claude-sonnet-4-5-20250929": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-opus-20240229":     {InputPer1M: 15.00, OutputPer1M: 75.00},
	"claude-3-sonnet-20240229":   {InputPer1M: 3.00, OutputPer1M: 15.00},
	"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},

	"gemini-1.5-pro":   {InputPer1M: 1.25, OutputPer1M: 5.00},
	"gemini-1.5-flash": {InputPer1M: 0.075, OutputPer1M: 0.30},
}

// CalculateCost computes the USD cost of one LLM call from its token
// counts and model name. Unknown models cost 0 — cost is advisory, not
// a billing source of truth.
func CalculateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := DefaultModelPricing[model]
	if !ok {
		return 0
	}
	return (float64(inputTokens)/1_000_000)*pricing.InputPer1M +
		(float64(outputTokens)/1_000_000)*pricing.OutputPer1M
}
