package identity

// TokenSet bundles the session tokens issued by the identity provider.
// RefreshToken is empty on refresh responses: the provider does not rotate it.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int32  `json:"expires_in"`
}

// UserInfo is the provider-side view of the authenticated user.
type UserInfo struct {
	Username   string            `json:"username"`
	Attributes map[string]string `json:"attributes"`
}

// ProfileUpdate is the outcome of an attribute update; VerificationRequired
// is set when the provider sent a confirmation code for a changed attribute.
type ProfileUpdate struct {
	Message              string `json:"message"`
	VerificationRequired bool   `json:"verification_required,omitempty"`
}

// Delivery describes where the password-reset code was sent.
type Delivery struct {
	Message        string `json:"message"`
	DeliveryMedium string `json:"delivery_medium"`
}
