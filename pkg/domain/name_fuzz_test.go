package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzParseName tests that parsing never panics on arbitrary input and that every
// accepted name is normalized and stable.
//
// Justification: ParseName guards the only entry point into the analysis pipeline.
func FuzzParseName(f *testing.F) {
	f.Add("")
	f.Add("example.com")
	f.Add("EXAMPLE.COM")
	f.Add("not a domain")
	f.Add("xn--p1ai")
	f.Add("a.b.c.d.e.f.g")
	f.Add("'; DROP TABLE domains;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("example.com\x00.evil")

	f.Fuzz(func(t *testing.T, input string) {
		name, err := ParseName(input)
		if err != nil {
			return
		}

		if string(name) != strings.ToLower(string(name)) {
			t.Errorf("accepted name %q is not lowercase", name)
		}
		if !utf8.ValidString(string(name)) {
			t.Errorf("accepted name %q is not valid UTF-8", name)
		}
		if strings.ContainsAny(string(name), " \t\r\n/\\_*") {
			t.Errorf("accepted name %q contains forbidden characters", name)
		}

		again, err := ParseName(string(name))
		if err != nil {
			t.Errorf("accepted name %q failed round-trip: %v", name, err)
		}
		if again != name {
			t.Errorf("round-trip changed %q to %q", name, again)
		}
	})
}
