package credentials

import (
	"regexp"
	"strings"
	"testing"
)

var usernameRe = regexp.MustCompile(`^[a-z]+-[a-z]+[1-9][0-9]$`)

func TestGenerateUsernameShape(t *testing.T) {
	for i := 0; i < 200; i++ {
		u := GenerateUsername()
		if !usernameRe.MatchString(u) {
			t.Fatalf("username %q does not match adjective-noun## shape", u)
		}
	}
}

func TestGeneratePasswordComplexity(t *testing.T) {
	for i := 0; i < 1000; i++ {
		p := GeneratePassword(10)
		if len(p) != 10 {
			t.Fatalf("length = %d, want 10 (%q)", len(p), p)
		}
		if !strings.ContainsAny(p, digits) {
			t.Fatalf("no digit in %q", p)
		}
		if !strings.ContainsAny(p, uppercase) {
			t.Fatalf("no uppercase in %q", p)
		}
		if !strings.ContainsAny(p, lowercase) {
			t.Fatalf("no lowercase in %q", p)
		}
	}
}

func TestGeneratePasswordCharset(t *testing.T) {
	for i := 0; i < 100; i++ {
		p := GeneratePassword(12)
		for _, c := range p {
			if !strings.ContainsRune(passwordCharset, c) {
				t.Fatalf("character %q outside charset in %q", c, p)
			}
		}
	}
}

func TestGeneratePasswordTinyLengthFallsBack(t *testing.T) {
	if got := len(GeneratePassword(2)); got != DefaultPasswordLength {
		t.Fatalf("len = %d, want default %d", got, DefaultPasswordLength)
	}
}

func TestSyntheticEmail(t *testing.T) {
	e := SyntheticEmail("agile-fox42", "Year 10 CS!", "cshub.student")
	if !strings.HasPrefix(e, "agile-fox42.year-10-cs") {
		t.Fatalf("unexpected email prefix: %q", e)
	}
	if !strings.HasSuffix(e, "@cshub.student") {
		t.Fatalf("unexpected email domain: %q", e)
	}
}
