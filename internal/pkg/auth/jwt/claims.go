package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the identity token claims accepted by the relay.
// Tokens are minted by the external login service; the relay only verifies the
// signature and trusts whatever identity the claims carry.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// Identity is the opaque username the login service authenticated. It is the
	// only identity fact this server ever sees.
	Identity string `json:"identity"`
}
