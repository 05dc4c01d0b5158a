package models

// User represents an authenticated member of an organization
type User struct {
	ID             int64  `json:"id"`
	OrganizationID int64  `json:"organization_id"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	PasswordHash   string `json:"-"` // Not serialized
	CreatedAt      string `json:"created_at"`
}
