package session

// Decision is the outcome of an access policy check.
type Decision string

const (
	// DecisionAllow renders the requested view.
	DecisionAllow Decision = "allow"
	// DecisionRedirectToLogin sends the visitor to the login flow.
	DecisionRedirectToLogin Decision = "redirect-to-login"
	// DecisionRedirectToHome sends an authenticated user with the wrong role
	// back home. A role mismatch is always an explicit redirect, never a
	// fallback render.
	DecisionRedirectToHome Decision = "redirect-to-home"
)

// Authorize decides whether a settled snapshot may access a view.
//
// With no required role the check is membership only: any authenticated
// snapshot is allowed. With a required role the snapshot's role must match it
// exactly; callers wanting hierarchy semantics can check RoleIsAtLeast before
// requesting. Authorize is pure: no side effects beyond the returned
// decision, so it is testable without mounting anything.
func Authorize(snap Snapshot, required ...UserRole) Decision {
	if !snap.IsAuthenticated() {
		return DecisionRedirectToLogin
	}

	for _, role := range required {
		if role == "" {
			continue
		}
		if snap.Role != role {
			return DecisionRedirectToHome
		}
	}

	return DecisionAllow
}
