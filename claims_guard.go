package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// immutableClaimsSnapshot captures the identity-bearing claims before a
// decorator runs so any mutation can be detected afterwards.
type immutableClaimsSnapshot struct {
	subject     string
	issuer      string
	uid         string
	email       string
	role        string
	audience    []string
	issuedAt    time.Time
	hasIssuedAt bool
	expiresAt   time.Time
	hasExpires  bool
}

func captureImmutableClaims(claims *JWTClaims) immutableClaimsSnapshot {
	var audienceCopy []string
	if len(claims.RegisteredClaims.Audience) > 0 {
		audienceCopy = append(audienceCopy, claims.RegisteredClaims.Audience...)
	}

	snap := immutableClaimsSnapshot{
		subject:  claims.RegisteredClaims.Subject,
		issuer:   claims.RegisteredClaims.Issuer,
		uid:      claims.UID,
		email:    claims.Email,
		role:     claims.UserRole,
		audience: audienceCopy,
	}

	if claims.RegisteredClaims.IssuedAt != nil {
		snap.issuedAt = claims.RegisteredClaims.IssuedAt.Time
		snap.hasIssuedAt = true
	}

	if claims.RegisteredClaims.ExpiresAt != nil {
		snap.expiresAt = claims.RegisteredClaims.ExpiresAt.Time
		snap.hasExpires = true
	}

	return snap
}

func (snap immutableClaimsSnapshot) validate(claims *JWTClaims) error {
	checks := []struct {
		field  string
		intact bool
	}{
		{"sub", claims.RegisteredClaims.Subject == snap.subject},
		{"iss", claims.RegisteredClaims.Issuer == snap.issuer},
		{"uid", claims.UID == snap.uid},
		{"email", claims.Email == snap.email},
		{"role", claims.UserRole == snap.role},
		{"aud", audienceEqual(claims.RegisteredClaims.Audience, snap.audience)},
		{"iat", numericDateEqual(claims.RegisteredClaims.IssuedAt, snap.issuedAt, snap.hasIssuedAt)},
		{"exp", numericDateEqual(claims.RegisteredClaims.ExpiresAt, snap.expiresAt, snap.hasExpires)},
	}

	for _, check := range checks {
		if !check.intact {
			return immutableClaimViolation(check.field)
		}
	}

	return nil
}

func numericDateEqual(date *jwt.NumericDate, expected time.Time, expectedSet bool) bool {
	if !expectedSet {
		return date == nil
	}
	return date != nil && date.Time.Equal(expected)
}

func audienceEqual(a jwt.ClaimStrings, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func immutableClaimViolation(field string) error {
	clone := ErrImmutableClaimMutation.Clone()
	if clone == nil {
		return ErrImmutableClaimMutation
	}
	clone.Message = fmt.Sprintf("immutable claim mutated: %s", field)
	clone.Source = ErrImmutableClaimMutation
	return clone.WithMetadata(map[string]any{"claim": field})
}
