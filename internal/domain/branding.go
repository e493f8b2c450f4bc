package domain

// Default branding used when a host has no custom profile.
const (
	DefaultSchoolName     = "PakAi Nexus"
	DefaultPrimaryColor   = "#0f172a"
	DefaultSecondaryColor = "#3b82f6"
)

// Branding is a tenant's visual identity as served by the backend, either
// from the public by-domain lookup or the authenticated school profile.
type Branding struct {
	Name           string `json:"name"`
	LogoURL        string `json:"logo_url,omitempty"`
	PrimaryColor   string `json:"primary_color,omitempty"`
	SecondaryColor string `json:"secondary_color,omitempty"`
	Website        string `json:"website,omitempty"`
	Address        string `json:"address,omitempty"`
}

// DefaultBranding returns the hardcoded fallback profile.
func DefaultBranding() *Branding {
	return &Branding{
		Name:           DefaultSchoolName,
		PrimaryColor:   DefaultPrimaryColor,
		SecondaryColor: DefaultSecondaryColor,
	}
}

// Merge overlays non-empty fields of other on top of b and returns the
// result. Used for the authenticated upgrade: authenticated fields win on
// conflict, public fields survive where the upgrade is silent.
func (b *Branding) Merge(other *Branding) *Branding {
	if b == nil {
		return other
	}
	if other == nil {
		return b
	}
	merged := *b
	if other.Name != "" {
		merged.Name = other.Name
	}
	if other.LogoURL != "" {
		merged.LogoURL = other.LogoURL
	}
	if other.PrimaryColor != "" {
		merged.PrimaryColor = other.PrimaryColor
	}
	if other.SecondaryColor != "" {
		merged.SecondaryColor = other.SecondaryColor
	}
	if other.Website != "" {
		merged.Website = other.Website
	}
	if other.Address != "" {
		merged.Address = other.Address
	}
	return &merged
}
