package tui

import (
	"errors"
	"strings"
	"testing"

	apierrors "github.com/bizcopilot/copilot/internal/errors"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"nil", nil, nil},
		{"detail", &apierrors.APIError{StatusCode: 429, Detail: "rate limited"}, []string{"rate limited", "429", "лимит"}},
		{"network", apierrors.NewNetworkError("chat", "/api/chat", errors.New("refused")), []string{"refused", "api_url"}},
		{"plain", errors.New("boom"), []string{"boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatError(tt.err)
			if tt.err == nil {
				if got != "" {
					t.Errorf("FormatError(nil) = %q", got)
				}
				return
			}
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("FormatError() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestRenderShortcuts(t *testing.T) {
	got := renderShortcuts([]shortcut{{"Enter", "Отправить"}, {"Esc", "Выход"}})
	for _, want := range []string{"Enter", "Отправить", "Esc", "Выход"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderShortcuts() missing %q", want)
		}
	}
}
