package scraper

import (
	"context"
	"testing"
)

func TestExtractPhoneFromText(t *testing.T) {
	tests := map[string]struct {
		text string
		want string
	}{
		"labelled local number":   {text: "Phone: 085749 35666", want: "085749 35666"},
		"international number":    {text: "+91 98765 43210", want: "+91 98765 43210"},
		"dashed number":           {text: "021-5550-1999", want: "021-5550-1999"},
		"opening hours":           {text: "Open · Closes 9:30 pm", want: ""},
		"rating with reviews":     {text: "4.7 (64)", want: ""},
		"hours with meridiem":     {text: "Mon 9 AM - 5 PM 0812345678", want: ""},
		"address with comma":      {text: "Jl. Raya 12, Kota 1234567890", want: ""},
		"review marker":           {text: "Reviews 0812345678901", want: ""},
		"colon without label":     {text: "Fax: 0211234567", want: ""},
		"parenthesized digits":    {text: "(0812345678)", want: ""},
		"too many digits":         {text: "12345678901234567", want: ""},
		"too short":               {text: "12345", want: ""},
		"lowercase hours keyword": {text: "hours 0812345678", want: ""},
		"first phone line of panel": {
			text: "Toko Maju\n4.7 (64)\nOpen · Closes 9:30 pm\nJl. Merdeka 1, Malang\nPhone: 085749 35666\n0811 2222 3333",
			want: "085749 35666",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := ExtractPhoneFromText(tc.text); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestExtractPhone_PrefersStructuredControl(t *testing.T) {
	card := listing("1", "Toko", "Jl. Satu", "")
	card.telHref = "tel:+6281234567890"
	card.panel = "Phone: 0899 0000 1111"
	page := newFakePage(card)
	page.selected = card

	if got := ExtractPhone(context.Background(), page); got != "+6281234567890" {
		t.Fatalf("expected tel link number, got %q", got)
	}
}

func TestExtractPhone_ReturnsControlValueTrimmed(t *testing.T) {
	card := listing("1", "Toko", "Jl. Satu", "")
	card.phoneAria = "  Phone: +62 21 555 0199 "
	page := newFakePage(card)
	page.selected = card

	if got := ExtractPhone(context.Background(), page); got != "Phone: +62 21 555 0199" {
		t.Fatalf("expected raw control value, got %q", got)
	}
}

func TestExtractPhone_FallsBackToPanelText(t *testing.T) {
	card := listing("1", "Toko", "Jl. Satu", "")
	card.phoneAria = "Phone"
	card.panel = "Toko\nPhone: 0899 0000 1111"
	page := newFakePage(card)
	page.selected = card

	if got := ExtractPhone(context.Background(), page); got != "0899 0000 1111" {
		t.Fatalf("expected panel number, got %q", got)
	}
}

func TestPhoneTracker_Assign(t *testing.T) {
	tracker := NewPhoneTracker(3)
	got := []string{
		tracker.Assign("0812-0000-0000"),
		tracker.Assign("0812 0000 0000"),
		tracker.Assign("081200000000"),
		tracker.Assign("0812 0000 0000"),
	}
	want := []string{"0812-0000-0000", "0812 0000 0000", "", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("assignment %d: expected %q, got %q", i, want[i], got[i])
		}
	}
	if tracker.Count("081200000000") != 4 {
		t.Fatalf("expected count 4, got %d", tracker.Count("081200000000"))
	}
	if tracker.Assign("") != "" || tracker.Count("") != 0 {
		t.Fatalf("empty phone must not be counted")
	}
}

func TestPhoneTracker_DisabledThreshold(t *testing.T) {
	tracker := NewPhoneTracker(0)
	for i := 0; i < 10; i++ {
		if got := tracker.Assign("0812 0000 0000"); got == "" {
			t.Fatalf("assignment %d blanked with suppression disabled", i)
		}
	}
}
