package domain

// Decision is the outcome of a guard (or of the whole pipeline): either
// allow the navigation, or redirect it elsewhere with a reason. ReturnTo
// carries the original destination so the login/MFA screens can bounce
// the user back after they finish.
type Decision struct {
	Allowed  bool
	To       string
	Reason   string
	ReturnTo string
}

// Allow permits the navigation.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Redirect short-circuits the navigation to another route.
func Redirect(to, reason string) Decision {
	return Decision{To: to, Reason: reason}
}

// RedirectReturn is Redirect carrying the original destination.
func RedirectReturn(to, reason, returnTo string) Decision {
	return Decision{To: to, Reason: reason, ReturnTo: returnTo}
}
