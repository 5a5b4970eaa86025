package langmeta

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "hi_in", want: "hi-IN"},
		{in: " EN-gb ", want: "en-GB"},
		{in: "te", want: "te"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		got := Resolve("hi")
		if got.Name != "Hindi" || got.NativeName != "हिंदी" || got.Flag == "" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("normalized match", func(t *testing.T) {
		got := Resolve("en_gb")
		if got.Name != "English (UK)" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("base fallback", func(t *testing.T) {
		got := Resolve("ta-LK")
		if got.Name != "Tamil" || got.NativeName != "தமிழ்" {
			t.Fatalf("unexpected fallback result: %#v", got)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("zz-ZZ")
		if got.Name != "zz-ZZ" || got.Flag != "" {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})

	t.Run("rtl flag", func(t *testing.T) {
		if !Resolve("ur").RTL {
			t.Fatal("Urdu should be RTL")
		}
		if Resolve("hi").RTL {
			t.Fatal("Hindi should not be RTL")
		}
	})
}
