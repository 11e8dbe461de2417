package llm

import "google.golang.org/genai"

// DecodingParams are fixed per deployment, never per request.
type DecodingParams struct {
	Model           string
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// DefaultDecodingParams keeps answers close to the grounding text.
func DefaultDecodingParams() DecodingParams {
	return DecodingParams{
		Model:           "gemini-2.0-flash",
		Temperature:     0.1,
		TopP:            0.95,
		TopK:            40,
		MaxOutputTokens: 5600,
	}
}

// SafetyPolicy applies one threshold to every harm category. BLOCK_NONE
// keeps war and caste history answerable.
type SafetyPolicy struct {
	Threshold genai.HarmBlockThreshold
}

func DefaultSafetyPolicy() SafetyPolicy {
	return SafetyPolicy{Threshold: genai.HarmBlockThresholdBlockNone}
}

// SafetyPolicyFromString maps a config value such as "BLOCK_NONE" or
// "BLOCK_ONLY_HIGH". Empty means BLOCK_NONE.
func SafetyPolicyFromString(s string) SafetyPolicy {
	if s == "" {
		return DefaultSafetyPolicy()
	}
	return SafetyPolicy{Threshold: genai.HarmBlockThreshold(s)}
}

var harmCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

func (p SafetyPolicy) settings() []*genai.SafetySetting {
	out := make([]*genai.SafetySetting, 0, len(harmCategories))
	for _, c := range harmCategories {
		out = append(out, &genai.SafetySetting{Category: c, Threshold: p.Threshold})
	}
	return out
}

func (d DecodingParams) generateConfig(safety SafetyPolicy) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(d.Temperature),
		TopP:            genai.Ptr(d.TopP),
		TopK:            genai.Ptr(d.TopK),
		MaxOutputTokens: d.MaxOutputTokens,
		SafetySettings:  safety.settings(),
	}
}
