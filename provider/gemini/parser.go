package gemini

import (
	"encoding/json"
	"time"

	"github.com/alienxp03/debatearena/provider"
)

type tokenStats struct {
	Prompt     int `json:"prompt"`
	Candidates int `json:"candidates"`
	Total      int `json:"total"`
}

// cliOutput covers both the Gemini CLI envelope and the raw API shape.
type cliOutput struct {
	Response string `json:"response,omitempty"`
	Text     string `json:"text,omitempty"`
	Stats    *struct {
		Models map[string]struct {
			Tokens *tokenStats `json:"tokens,omitempty"`
		} `json:"models,omitempty"`
	} `json:"stats,omitempty"`
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates,omitempty"`
	UsageMetadata *struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata,omitempty"`
}

// ParseJSON parses Gemini CLI JSON output. Output that is not JSON is
// returned as plain text.
func ParseJSON(data string, duration time.Duration) (*provider.Response, error) {
	var out cliOutput
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return &provider.Response{Content: data, Raw: data}, nil
	}

	resp := &provider.Response{Raw: data}
	meta := &provider.Metadata{Duration: duration}
	switch {
	case out.Response != "":
		resp.Content = out.Response
	case out.Text != "":
		resp.Content = out.Text
	case len(out.Candidates) > 0:
		for _, part := range out.Candidates[0].Content.Parts {
			resp.Content += part.Text
		}
		meta.StopReason = out.Candidates[0].FinishReason
	}

	if out.Stats != nil {
		for _, m := range out.Stats.Models {
			if m.Tokens == nil {
				continue
			}
			meta.InputTokens += m.Tokens.Prompt
			meta.OutputTokens += m.Tokens.Candidates
			meta.TotalTokens += m.Tokens.Total
		}
	}
	if u := out.UsageMetadata; u != nil && meta.TotalTokens == 0 {
		meta.InputTokens = u.PromptTokenCount
		meta.OutputTokens = u.CandidatesTokenCount
		meta.TotalTokens = u.TotalTokenCount
	}

	if meta.TotalTokens > 0 || meta.StopReason != "" {
		resp.Metadata = meta
	}
	return resp, nil
}
