package ui

import "testing"

func TestRenderFunctionsPassThroughWhenColorDisabled(t *testing.T) {
	t.Setenv("TATL_NO_COLOR", "1")

	tests := []struct {
		name string
		fn   func(string) string
	}{
		{"RenderPass", RenderPass},
		{"RenderWarn", RenderWarn},
		{"RenderFail", RenderFail},
		{"RenderAccent", RenderAccent},
		{"RenderMuted", RenderMuted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn("hello"); got != "hello" {
				t.Errorf("%s(\"hello\") = %q, want unstyled %q", tt.name, got, "hello")
			}
		})
	}
}
