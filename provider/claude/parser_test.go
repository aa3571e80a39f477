package claude

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alienxp03/debatearena/provider"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantContent    string
		wantModel      string
		wantInputToks  int
		wantOutputToks int
		wantDuration   time.Duration
	}{
		{
			name: "content_blocks",
			input: `{"type":"result","model":"sonnet","content":[
				{"type":"text","text":"Taxes fund "},
				{"type":"tool_use","text":"ignored"},
				{"type":"text","text":"roads."}],
				"usage":{"input_tokens":40,"output_tokens":12}}`,
			wantContent:    "Taxes fund roads.",
			wantModel:      "sonnet",
			wantInputToks:  40,
			wantOutputToks: 12,
			wantDuration:   2 * time.Second,
		},
		{
			name: "result_with_cache_and_cli_duration",
			input: `{"type":"result","result":"The motion fails.","duration_ms":1500,
				"usage":{"input_tokens":10,"output_tokens":5,"cache_read_input_tokens":90}}`,
			wantContent:    "The motion fails.",
			wantInputToks:  100,
			wantOutputToks: 5,
			wantDuration:   1500 * time.Millisecond,
		},
		{
			name:        "plain_text",
			input:       "not json at all",
			wantContent: "not json at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseJSON(tt.input, 2*time.Second)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", resp.Content, tt.wantContent)
			}
			if resp.Model != tt.wantModel {
				t.Errorf("model = %q, want %q", resp.Model, tt.wantModel)
			}
			if tt.wantInputToks == 0 {
				if resp.Metadata != nil {
					t.Errorf("expected no metadata, got %+v", resp.Metadata)
				}
				return
			}
			if resp.Metadata == nil {
				t.Fatal("expected metadata")
			}
			if resp.Metadata.InputTokens != tt.wantInputToks || resp.Metadata.OutputTokens != tt.wantOutputToks {
				t.Errorf("tokens = %d/%d, want %d/%d", resp.Metadata.InputTokens, resp.Metadata.OutputTokens, tt.wantInputToks, tt.wantOutputToks)
			}
			if resp.Metadata.Duration != tt.wantDuration {
				t.Errorf("duration = %v, want %v", resp.Metadata.Duration, tt.wantDuration)
			}
		})
	}
}

func TestParseJSONErrorResult(t *testing.T) {
	_, err := ParseJSON(`{"type":"result","is_error":true,"result":"rate limited"}`, 0)
	var cliErr *provider.CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected CLIError, got %v", err)
	}
	if !strings.Contains(cliErr.Message, "rate limited") {
		t.Errorf("unexpected message %q", cliErr.Message)
	}
}

func TestArgs(t *testing.T) {
	p := New(provider.Config{Name: "claude", Command: "claude", DefaultModel: "haiku"})
	args := p.Args(&provider.Request{System: "You argue pros.", Prompt: "Topic: tea"})

	want := []string{"--output-format", "json", "--model", "haiku", "--system-prompt", "You argue pros.", "Topic: tea"}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Errorf("args = %q, want %q", args, want)
	}

	args = p.Args(&provider.Request{Prompt: "p", Model: "opus"})
	for _, a := range args {
		if a == "--system-prompt" {
			t.Error("system flag should be omitted without a system instruction")
		}
	}
	if args[3] != "opus" {
		t.Errorf("request model should win, got %q", args[3])
	}
}
