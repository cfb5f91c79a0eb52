package catalog

import "testing"

func TestCTFMatchesFlag(t *testing.T) {
	ctf := CTF{Flag: "FLAG{abc}"}

	tests := []struct {
		in   string
		want bool
	}{
		{in: "FLAG{abc}", want: true},
		{in: " FLAG{abc} ", want: true},
		{in: "\tFLAG{abc}\n", want: true},
		{in: "flag{abc}", want: false},
		{in: "FLAG{abc", want: false},
		{in: "", want: false},
	}

	for _, tt := range tests {
		if got := ctf.MatchesFlag(tt.in); got != tt.want {
			t.Fatalf("MatchesFlag(%q)=%v want=%v", tt.in, got, tt.want)
		}
	}
}

func TestCTFMatchesFlag_StoredFlagTrimmed(t *testing.T) {
	ctf := CTF{Flag: "  FLAG{padded}\n"}
	if !ctf.MatchesFlag("FLAG{padded}") {
		t.Fatalf("expected stored flag whitespace to be ignored")
	}

	empty := CTF{Flag: "   "}
	if empty.MatchesFlag("") {
		t.Fatalf("an empty stored flag must never match")
	}
}

func TestCTFHasHint(t *testing.T) {
	ctf := CTF{Hints: []string{"a", "b"}}
	if !ctf.HasHint(0) || !ctf.HasHint(1) {
		t.Fatalf("expected configured hints to exist")
	}
	if ctf.HasHint(2) || ctf.HasHint(-1) {
		t.Fatalf("expected out of range hints to be rejected")
	}
}
