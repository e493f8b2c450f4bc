package domain

import "testing"

func TestValidSubdomain(t *testing.T) {
	tests := []struct {
		name      string
		subdomain string
		want      bool
	}{
		{"simple", "greenfield", true},
		{"with digits", "school42", true},
		{"with hyphen", "green-field", true},
		{"minimum length", "abc", true},
		{"too short", "ab", false},
		{"empty", "", false},
		{"uppercase", "Greenfield", false},
		{"underscore", "green_field", false},
		{"dot", "green.field", false},
		{"space", "green field", false},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidSubdomain(tt.subdomain); got != tt.want {
				t.Errorf("ValidSubdomain(%q) = %v, want %v", tt.subdomain, got, tt.want)
			}
		})
	}
}

func TestParseSubscriptionStatus(t *testing.T) {
	for _, s := range []string{"trial", "active", "grace", "locked", "suspended", "churned"} {
		status, err := ParseSubscriptionStatus(s)
		if err != nil {
			t.Fatalf("ParseSubscriptionStatus(%q) returned error: %v", s, err)
		}
		if string(status) != s {
			t.Errorf("ParseSubscriptionStatus(%q) = %q", s, status)
		}
	}

	if _, err := ParseSubscriptionStatus("cancelled"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestTenantURL(t *testing.T) {
	got := TenantURL("greenfield", "paknexus.com")
	want := "https://greenfield.paknexus.com"
	if got != want {
		t.Errorf("TenantURL = %q, want %q", got, want)
	}
}
