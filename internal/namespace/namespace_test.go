package namespace

import (
	"errors"
	"testing"
)

func TestNormalizeAccepts(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a/b/c", "a/b/c"},
		{"valid-name", "valid-name"},
		{"valid.name", "valid.name"},
		{"libs/foo", "libs/foo"},
		{`win\style\path`, "win/style/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"leading separator", "/x"},
		{"trailing separator", "x/"},
		{"hidden first component", ".git/x"},
		{"hidden nested component", "x/.hidden"},
		{"dotdot component", "x/../y"},
		{"lone dotdot", ".."},
		{"dot component", "x/./y"},
		{"lone dot", "."},
		{"doubled separator", "a//b"},
		{"angle bracket", "a<b"},
		{"colon", "a:b"},
		{"quote", `a"b`},
		{"pipe", "a|b"},
		{"question mark", "a?b"},
		{"asterisk", "a*b"},
		{"control character", "a\x01b"},
		{"reserved delimiter", "a__b"},
		{"delimiter in component", "libs/foo__bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.input)
			if err == nil {
				t.Fatalf("Normalize(%q) succeeded, want error", tt.input)
			}
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Normalize(%q) error = %v, want ErrInvalidPath", tt.input, err)
			}
		})
	}
}

// Distinct accepted paths must map to distinct prefixes and identifiers.
// The interesting cases are paths that would collide if the delimiter
// were itself a legal path substring.
func TestPrefixInjectivity(t *testing.T) {
	paths := []string{
		"a/b/c",
		"a/b",
		"ab/c",
		"a/bc",
		"libs/foo",
		"libs/foo/bar",
		"libsfoo",
	}

	prefixes := make(map[string]string)
	idents := make(map[string]string)

	for _, p := range paths {
		norm, err := Normalize(p)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", p, err)
		}

		prefix := BranchPrefix(norm)
		if prior, ok := prefixes[prefix]; ok {
			t.Errorf("BranchPrefix collision: %q and %q both map to %q", prior, p, prefix)
		}
		prefixes[prefix] = p

		ident := Sanitize(norm)
		if prior, ok := idents[ident]; ok {
			t.Errorf("Sanitize collision: %q and %q both map to %q", prior, p, ident)
		}
		idents[ident] = p

		if got := PrefixToPath(prefix); got != norm {
			t.Errorf("PrefixToPath(BranchPrefix(%q)) = %q, want %q", norm, got, norm)
		}
	}
}

func TestBranchPrefix(t *testing.T) {
	if got := BranchPrefix("libs/foo"); got != "libs__foo" {
		t.Errorf("BranchPrefix(libs/foo) = %q, want libs__foo", got)
	}
	if got := BranchPrefix("single"); got != "single" {
		t.Errorf("BranchPrefix(single) = %q, want single", got)
	}
}

func TestValidateSourceURL(t *testing.T) {
	if err := ValidateSourceURL(""); err == nil {
		t.Error("expected error for empty URL")
	}
	if err := ValidateSourceURL("   "); err == nil {
		t.Error("expected error for blank URL")
	}
	if err := ValidateSourceURL("https://example.com/repo.git"); err != nil {
		t.Errorf("unexpected error for https URL: %v", err)
	}
	if err := ValidateSourceURL("/srv/git/repo"); err != nil {
		t.Errorf("unexpected error for local path: %v", err)
	}
}

func TestHasScheme(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/r.git", true},
		{"git@github.com:x/y.git", true},
		{"ssh://host/r", true},
		{"/local/path", false},
		{"relative/path", false},
	}
	for _, tt := range tests {
		if got := HasScheme(tt.url); got != tt.want {
			t.Errorf("HasScheme(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
