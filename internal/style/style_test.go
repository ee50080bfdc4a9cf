package style

import "testing"

func TestStripANSI(t *testing.T) {
	in := "\x1b[32mok\x1b[0m \x1b]0;title\x07done"
	if got := StripANSI(in); got != "ok done" {
		t.Fatalf("StripANSI(%q) = %q", in, got)
	}
}

func TestFlattenCollapsesNewlinesAndDots(t *testing.T) {
	in := "build failed\n\nretry... in progress\r\nsee https://example.com/log for details"
	got := Flatten(in, "no output")
	want := "Build failed.Retry. In progress.See https://example.com/log for details"
	if got != want {
		t.Fatalf("Flatten() = %q, want %q", got, want)
	}
}

func TestFlattenEmptyUsesDefault(t *testing.T) {
	if got := Flatten("   \n\n  ", "fallback"); got != "fallback" {
		t.Fatalf("Flatten() = %q, want fallback", got)
	}
}

func TestFlattenStripsANSIFirst(t *testing.T) {
	in := "\x1b[31merror\x1b[0m: missing file"
	got := Flatten(in, "")
	if got != "Error: missing file" {
		t.Fatalf("Flatten() = %q", got)
	}
}
