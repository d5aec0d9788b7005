// Package auth provides JWT authentication for the operator-facing status
// API. This is deliberately separate from the node-to-node identity and
// threshold signature schemes in pkg/crypto: operator tokens authorize a
// human driving coordctl, not a consensus group member.
package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims represents JWT claims for operator authentication.
type Claims struct {
	jwt.RegisteredClaims

	// Operator is the human-readable identity of the caller.
	Operator string `json:"operator"`

	// ReadOnly restricts the bearer to GET endpoints only.
	ReadOnly bool `json:"read_only,omitempty"`
}
