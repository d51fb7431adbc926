package sanitize

import "testing"

func TestLine(t *testing.T) {
	tests := map[string]string{
		"  Acme   <b>Bakery</b> ":         "Acme Bakery",
		"Bolt\tGarage\n":                  "Bolt Garage",
		"&lt;b&gt;Acme&lt;/b&gt; Bakery":  "Acme Bakery",
		"AT&amp;T Store":                  "AT&T Store",
		"Fish &amp; Chips <!-- note -->":  "Fish & Chips",
		"<script>alert(1)</script>Bistro": "Bistro",
	}
	for in, want := range tests {
		if got := Line(in); got != want {
			t.Fatalf("Line(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTextKeepsLineBreaks(t *testing.T) {
	got := Text("Called twice.\r\nSaid <i>maybe</i>, follow up\x07 friday\r")
	want := "Called twice.\nSaid maybe, follow up friday"
	if got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
}

func TestTextKeepsComparisons(t *testing.T) {
	tests := map[string]string{
		"Budget <5k, wants >10 pages":  "Budget <5k, wants >10 pages",
		"Traffic < 100 visits/day":     "Traffic < 100 visits/day",
		"Quote: 3 > 2 <b>options</b>":  "Quote: 3 > 2 options",
		"<style>p{}</style>Keep <3 it": "Keep <3 it",
	}
	for in, want := range tests {
		if got := Text(in); got != want {
			t.Fatalf("Text(%q) = %q, want %q", in, got, want)
		}
	}
}
