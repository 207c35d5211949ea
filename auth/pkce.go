package auth

import (
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// pkcePair is the code verifier for one authorization flow run and the S256
// challenge derived from it. A run never reuses a pair.
type pkcePair struct {
	verifier  string
	challenge string
}

// newPKCEPair generates 32 random bytes, base64url encoded, as the verifier.
func newPKCEPair() pkcePair {
	verifier := oauth2.GenerateVerifier()
	return pkcePair{
		verifier:  verifier,
		challenge: oauth2.S256ChallengeFromVerifier(verifier),
	}
}

// newState returns the anti-forgery token echoed back on the redirect.
func newState() string {
	return uuid.NewString()
}
