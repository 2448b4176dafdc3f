package auth

// Claims is the validated content of a bearer token. Sub carries the user's
// id (Mongo ObjectID hex); everything downstream scopes data access by it.
type Claims struct {
	Sub       string `json:"sub"`
	TokenID   string `json:"jti"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
