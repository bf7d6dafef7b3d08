package scripture

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Reference
	}{
		{"John 3:16", Reference{Book: "John", Chapter: 3, VerseStart: 16}},
		{"1 John 3:16-18", Reference{Book: "1 John", Chapter: 3, VerseStart: 16, VerseEnd: 18}},
		{"Song of Solomon 2:1", Reference{Book: "Song of Solomon", Chapter: 2, VerseStart: 1}},
		{"Psalms 23", Reference{Book: "Psalms", Chapter: 23}},
		{"  2 Timothy 1:7 ", Reference{Book: "2 Timothy", Chapter: 1, VerseStart: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "3:16", "John", "John three sixteen"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", in)
		}
	}
}

func TestReferenceString(t *testing.T) {
	tests := []struct {
		ref  Reference
		want string
	}{
		{Reference{Book: "John", Chapter: 3, VerseStart: 16}, "John 3:16"},
		{Reference{Book: "1 John", Chapter: 3, VerseStart: 16, VerseEnd: 18}, "1 John 3:16-18"},
		{Reference{Book: "Psalms", Chapter: 23}, "Psalms 23"},
	}
	for _, tt := range tests {
		if got := tt.ref.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestNormalizeTrimsOnly(t *testing.T) {
	if got := Normalize("  John 3:16 "); got != "John 3:16" {
		t.Errorf("Normalize = %q", got)
	}
	// Case and internal spacing variants stay distinct keys.
	if Normalize("john 3:16") == Normalize("John 3:16") {
		t.Error("Normalize collapsed case variants; keys must stay distinct")
	}
}

func TestLooksLikeReference(t *testing.T) {
	valid := []string{"John 3:16", "1 John 3:16", "Song of Solomon 2:1", "Psalms 119:105", "Romans 8:28-30"}
	for _, in := range valid {
		if !LooksLikeReference(in) {
			t.Errorf("LooksLikeReference(%q) = false, want true", in)
		}
	}

	invalid := []string{"", "hello world", "John", "3:16", "John 3", "not; a verse 1:1!"}
	for _, in := range invalid {
		if LooksLikeReference(in) {
			t.Errorf("LooksLikeReference(%q) = true, want false", in)
		}
	}
}
