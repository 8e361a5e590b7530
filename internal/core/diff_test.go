package core

import (
	"strings"
	"testing"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{"plain ASCII text", []byte("Hello, World!\nThis is a test."), true},
		{"UTF-8 with special chars", []byte("Hello 世界! Ñoño café"), true},
		{"empty file", []byte(""), true},
		{"newlines and spaces", []byte("\n\n  \t  \n"), true},
		{"JSON content", []byte(`{"key": "value", "number": 123}`), true},
		{"content with null bytes", []byte("Hello\x00World"), false},
		{"random binary data", []byte{0xFF, 0xFE, 0x00, 0x01, 0xAB, 0xCD}, false},
		{"non-UTF-8 sequences", []byte{0x80, 0x81, 0x82, 0x83, 0x84}, false},
		{"mostly control chars", []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFileType(tt.content); got != tt.want {
				t.Errorf("DetectFileType() for %s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCompareFiles(t *testing.T) {
	tests := []struct {
		name string
		a, b []byte
		want bool
	}{
		{"identical text", []byte("Hello, World!"), []byte("Hello, World!"), true},
		{"identical empty", []byte(""), []byte(""), true},
		{"identical binary", []byte{0x00, 0x01, 0xFF}, []byte{0x00, 0x01, 0xFF}, true},
		{"different text", []byte("data1"), []byte("data2"), false},
		{"empty vs non-empty", []byte(""), []byte("content"), false},
		{"case difference", []byte("Hello"), []byte("hello"), false},
		{"whitespace difference", []byte("Hello World"), []byte("Hello  World"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CompareFiles(tt.a, tt.b); got != tt.want {
				t.Errorf("CompareFiles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerateUnifiedDiff(t *testing.T) {
	t.Run("identical", func(t *testing.T) {
		out, err := GenerateUnifiedDiff("a.txt", []byte("same\n"), []byte("same\n"))
		if err != nil {
			t.Fatalf("GenerateUnifiedDiff failed: %v", err)
		}
		if out != "" {
			t.Errorf("expected empty diff, got %q", out)
		}
	})

	t.Run("text change", func(t *testing.T) {
		stored := []byte("line1\nline2\nline3\n")
		local := []byte("line1\nchanged\nline3\n")

		out, err := GenerateUnifiedDiff("a.txt", stored, local)
		if err != nil {
			t.Fatalf("GenerateUnifiedDiff failed: %v", err)
		}
		for _, want := range []string{"--- container/a.txt", "+++ local/a.txt", "-line2", "+changed"} {
			if !strings.Contains(out, want) {
				t.Errorf("diff missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("binary", func(t *testing.T) {
		out, err := GenerateUnifiedDiff("blob.bin", []byte{0x00, 0x01}, []byte{0x00, 0x02})
		if err != nil {
			t.Fatalf("GenerateUnifiedDiff failed: %v", err)
		}
		if out != "Binary file blob.bin has changed\n" {
			t.Errorf("unexpected binary diff output %q", out)
		}
	})
}
