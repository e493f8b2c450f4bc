package domain

// Identity is the normalized result of a successful credential exchange
// against the backend token endpoint. Role and TenantID may be empty: the
// school-portal login route returns only the access token, and platform
// admins carry no tenant.
type Identity struct {
	ID          string
	Email       string
	AccessToken string
	Role        string
	TenantID    string
}
