package domain

import (
	"testing"
)

func TestRRType_IsValid(t *testing.T) {
	cases := []struct {
		value RRType
		want  bool
	}{
		{1, true}, {2, true}, {5, true}, {6, true}, {12, true}, {15, true}, {16, true},
		{28, true}, {33, true}, {43, true}, {46, true}, {48, true}, {52, true},
		{64, true}, {65, true}, {255, true}, {257, true},
		{0, false}, {9999, false}, {65000, false},
	}
	for _, tc := range cases {
		if got := tc.value.IsValid(); got != tc.want {
			t.Errorf("IsValid(%d) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestRRType_String(t *testing.T) {
	cases := []struct {
		t    RRType
		want string
	}{
		{1, "A"}, {2, "NS"}, {5, "CNAME"}, {6, "SOA"}, {12, "PTR"}, {15, "MX"},
		{16, "TXT"}, {28, "AAAA"}, {33, "SRV"}, {43, "DS"}, {46, "RRSIG"},
		{48, "DNSKEY"}, {52, "TLSA"}, {64, "SVCB"}, {65, "HTTPS"}, {255, "ANY"}, {257, "CAA"},
		{0, "UNKNOWN(0)"}, {9999, "UNKNOWN(9999)"},
	}
	for _, tc := range cases {
		if got := tc.t.String(); got != tc.want {
			t.Errorf("String(%d) = %v, want %v", tc.t, got, tc.want)
		}
	}
}

func TestParseRRType(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		want        RRType
		expectError bool
	}{
		{name: "A uppercase", input: "A", want: 1},
		{name: "aaaa lowercase", input: "aaaa", want: 28},
		{name: "Mx mixed case", input: "Mx", want: 15},
		{name: "txt with whitespace", input: " txt ", want: 16},
		{name: "SOA", input: "SOA", want: 6},
		{name: "SRV", input: "SRV", want: 33},
		{name: "ANY", input: "ANY", want: 255},
		{name: "CAA", input: "CAA", want: 257},
		{name: "empty", input: "", expectError: true},
		{name: "unknown", input: "FROB", expectError: true},
		{name: "numeric", input: "28", expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRRType(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("ParseRRType(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRRType(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRRType(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
