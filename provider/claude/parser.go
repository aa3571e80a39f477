package claude

import (
	"encoding/json"
	"time"

	"github.com/alienxp03/debatearena/provider"
)

// cliOutput is the JSON document printed by `claude --output-format json`.
type cliOutput struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype,omitempty"`
	IsError bool   `json:"is_error,omitempty"`
	Model   string `json:"model,omitempty"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content,omitempty"`
	Result     string `json:"result,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Usage      *struct {
		InputTokens              int `json:"input_tokens"`
		OutputTokens             int `json:"output_tokens"`
		CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
		CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
	} `json:"usage,omitempty"`
}

// ParseJSON parses Claude CLI JSON output. Output that is not JSON is
// returned as plain text.
func ParseJSON(data string, duration time.Duration) (*provider.Response, error) {
	var out cliOutput
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return &provider.Response{Content: data, Raw: data}, nil
	}

	resp := &provider.Response{Model: out.Model, Raw: data}
	for _, c := range out.Content {
		if c.Type == "text" {
			resp.Content += c.Text
		}
	}
	if resp.Content == "" {
		resp.Content = out.Result
	}
	if out.IsError {
		return nil, &provider.CLIError{Provider: "claude", Message: resp.Content}
	}

	if out.Usage != nil {
		input := out.Usage.InputTokens + out.Usage.CacheCreationInputTokens + out.Usage.CacheReadInputTokens
		if out.DurationMs > 0 {
			duration = time.Duration(out.DurationMs) * time.Millisecond
		}
		resp.Metadata = &provider.Metadata{
			InputTokens:  input,
			OutputTokens: out.Usage.OutputTokens,
			TotalTokens:  input + out.Usage.OutputTokens,
			StopReason:   out.StopReason,
			SessionID:    out.SessionID,
			Duration:     duration,
		}
	}
	return resp, nil
}
