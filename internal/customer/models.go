package customer

import "time"

// Customer is the directory view of a provider user record.
type Customer struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Folder    string    `json:"folder"`
	Enabled   bool      `json:"enabled"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateResult is returned after provisioning a new customer account. The
// temporary password is surfaced so an admin can relay it if the email
// never arrives.
type CreateResult struct {
	Customer          Customer `json:"customer"`
	TemporaryPassword string   `json:"temporary_password"`
	NotificationSent  bool     `json:"notification_sent"`
}

// Update carries the optional fields of a partial customer update.
// Nil means "leave unchanged".
type Update struct {
	Name    *string
	Phone   *string
	Enabled *bool
}
