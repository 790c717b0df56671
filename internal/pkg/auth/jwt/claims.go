package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims carried by a credential token.
// The core only relies on ID, the stable opaque user identity; everything
// else about the user is resolved from the durable store.
type Payload struct {
	// StandardClaims embeds the JWT standard fields, Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer), used for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the stable opaque identifier of the authenticated user.
	ID string `json:"id"`
}
