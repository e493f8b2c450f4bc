package domain

import (
	"fmt"
	"regexp"
	"time"
)

// SubscriptionStatus is the tenant lifecycle state. The backend owns the
// transitions; the gateway only parses and displays it.
type SubscriptionStatus string

const (
	StatusTrial     SubscriptionStatus = "trial"
	StatusActive    SubscriptionStatus = "active"
	StatusGrace     SubscriptionStatus = "grace"
	StatusLocked    SubscriptionStatus = "locked"
	StatusSuspended SubscriptionStatus = "suspended"
	StatusChurned   SubscriptionStatus = "churned"
)

func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	switch SubscriptionStatus(s) {
	case StatusTrial, StatusActive, StatusGrace, StatusLocked, StatusSuspended, StatusChurned:
		return SubscriptionStatus(s), nil
	}
	return "", fmt.Errorf("unknown subscription status %q", s)
}

func (s SubscriptionStatus) Valid() bool {
	_, err := ParseSubscriptionStatus(string(s))
	return err == nil
}

// Tenant is one school account, as consumed from the backend admin API.
type Tenant struct {
	ID                 string             `json:"tenant_id"`
	Name               string             `json:"name"`
	Subdomain          string             `json:"subdomain"`
	ContactEmail       string             `json:"contact_email"`
	ContactPhone       string             `json:"contact_phone,omitempty"`
	Status             SubscriptionStatus `json:"status"`
	TrialStart         *time.Time         `json:"trial_start,omitempty"`
	SubscriptionExpiry time.Time          `json:"subscription_expiry"`
	CreatedAt          time.Time          `json:"created_at"`

	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	Website        string `json:"website,omitempty"`
	Address        string `json:"address,omitempty"`
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidSubdomain reports whether s is an acceptable tenant slug:
// 3-63 chars, lowercase letters, digits and hyphens only. Matches the
// backend's registration rule so bad slugs are rejected before the round trip.
func ValidSubdomain(s string) bool {
	if len(s) < 3 || len(s) > 63 {
		return false
	}
	return subdomainPattern.MatchString(s)
}

// TenantURL builds the tenant-portal URL for a subdomain under the
// configured app domain.
func TenantURL(subdomain, appDomain string) string {
	return fmt.Sprintf("https://%s.%s", subdomain, appDomain)
}
