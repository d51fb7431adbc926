package automation

import (
	"testing"

	"agency_crm_backend/internal/leads/domain"
)

func TestRenderMessage(t *testing.T) {
	lead := domain.Lead{
		Name:     "Maria Lopez",
		Status:   domain.StatusInterested,
		Website:  "https://lopez.example",
		Industry: "Dental",
	}

	cases := []struct {
		name string
		tpl  string
		want string
	}{
		{name: "plain text", tpl: "No placeholders here", want: "No placeholders here"},
		{name: "flat name", tpl: "Hi {{name}}", want: "Hi Maria Lopez"},
		{name: "prefixed and spaced", tpl: "Hi {{ lead.name }}", want: "Hi Maria Lopez"},
		{name: "case insensitive", tpl: "{{Lead.Website}}", want: "https://lopez.example"},
		{name: "first name", tpl: "Hey {{first_name}},", want: "Hey Maria,"},
		{name: "several", tpl: "{{industry}} / {{status}}", want: "Dental / interested"},
		{name: "unknown placeholder renders empty", tpl: "A{{budget}}B", want: "AB"},
		{name: "absent field renders empty", tpl: "[{{phone}}]", want: "[]"},
	}

	for _, tc := range cases {
		got, err := RenderMessage(tc.tpl, lead)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestRenderMessageReturnsRawTextOnError(t *testing.T) {
	tpl := "Hello {{name"
	got, err := RenderMessage(tpl, domain.Lead{Name: "X"})
	if err == nil {
		t.Fatal("expected parse error")
	}
	if got != tpl {
		t.Fatalf("expected raw text, got %q", got)
	}
}
