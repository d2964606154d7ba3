package security

import (
	"strings"
	"testing"
)

// TestSanitizeText_StripsTags はタグが除去されテキストのみが残ることを検証する。
func TestSanitizeText_StripsTags(t *testing.T) {
	s := NewContentSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"強調タグ", "<b>SpaceX</b> primary launch site", "SpaceX primary launch site"},
		{"リンク", `<a href="https://example.com">Vandenberg</a>`, "Vandenberg"},
		{"前後の空白", "  Kennedy Space Center  ", "Kennedy Space Center"},
		{"プレーンテキスト", "SpaceX's west coast launch site", "SpaceX&#39;s west coast launch site"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SanitizeText(tt.input); got != tt.want {
				t.Errorf("SanitizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitizeText_XSSPayloads は代表的なXSSペイロードが無害化されることを検証する。
func TestSanitizeText_XSSPayloads(t *testing.T) {
	s := NewContentSanitizer()

	payloads := []string{
		`<script>alert('xss')</script>Cape Canaveral`,
		`<img src=x onerror="alert(1)">Cape Canaveral`,
		`<svg onload="alert(1)">Cape Canaveral</svg>`,
		`<iframe src="javascript:alert(1)"></iframe>Cape Canaveral`,
		`<style>body{display:none}</style>Cape Canaveral`,
	}

	for _, p := range payloads {
		got := s.SanitizeText(p)
		if strings.Contains(got, "<") || strings.Contains(got, "alert(") {
			t.Errorf("SanitizeText(%q) = %q, 危険な内容が残っている", p, got)
		}
		if !strings.Contains(got, "Cape Canaveral") {
			t.Errorf("SanitizeText(%q) = %q, テキストが失われている", p, got)
		}
	}
}

// TestSanitizeText_EmptyInput は空文字列に空文字列を返すことを検証する。
func TestSanitizeText_EmptyInput(t *testing.T) {
	s := NewContentSanitizer()
	if got := s.SanitizeText(""); got != "" {
		t.Errorf("SanitizeText(\"\") = %q, want empty", got)
	}
}

// TestSanitizeText_Idempotent はタグを含まない出力の再サニタイズで内容が変わらないことを検証する。
func TestSanitizeText_Idempotent(t *testing.T) {
	s := NewContentSanitizer()
	input := "<p>Launch Complex 39A</p>"

	first := s.SanitizeText(input)
	second := s.SanitizeText(input)
	if first != second {
		t.Errorf("同一入力で出力が異なる: %q != %q", first, second)
	}
}

func TestContentSanitizerInterface(t *testing.T) {
	var _ ContentSanitizerService = NewContentSanitizer()
}
