package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/orghub/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Acme Corp", "Acme Corp"},
		{"trims", "  Acme  ", "Acme"},
		{"ampersand", "AT&T", "AT&T"},
		{"entity", "AT&amp;T", "AT&T"},
		{"tags stripped", "<b>Bold</b> Org", "Bold Org"},
		{"script removed", "Org<script>alert('xss')</script>", "Org"},
		{"unicode", "张三的工作空间", "张三的工作空间"},
		{"only markup", "<img src=x onerror=alert(1)>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
