package portal

import "errors"

var (
	// ErrCaptchaRequired indicates the portal demands a captcha for this
	// account; the attempt cannot proceed without human intervention.
	ErrCaptchaRequired = errors.New("portal: captcha required")
	// ErrLoginFailed indicates credentials were rejected or no session
	// was established after submitting the login form.
	ErrLoginFailed = errors.New("portal: login failed")
	// ErrLogoutFailed indicates the session persisted after calling the
	// logout endpoint.
	ErrLogoutFailed = errors.New("portal: logout failed")
	// ErrNoOpenBusiness indicates the portal reports no currently open
	// check-in business.
	ErrNoOpenBusiness = errors.New("portal: no open business")
	// ErrNotYetOpen is a benign outcome: the check-in window has not
	// opened yet.
	ErrNotYetOpen = errors.New("portal: check-in window not yet open")
	// ErrWindowExpired is a benign outcome: the check-in deadline has
	// already passed.
	ErrWindowExpired = errors.New("portal: check-in window expired")
	// ErrClockForbidden indicates the form instance is not editable,
	// e.g. already submitted or permission denied.
	ErrClockForbidden = errors.New("portal: form instance not editable")
	// ErrClockValidationFailed indicates the portal did not echo back
	// the submitted values; the submission did not stick.
	ErrClockValidationFailed = errors.New("portal: submitted values not echoed back")
	// ErrUnexpectedPayload indicates a portal response did not match the
	// expected shape.
	ErrUnexpectedPayload = errors.New("portal: unexpected response shape")
)

// IsBenignOutcome reports whether the error is one of the non-failure
// early exits of the clock workflow.
func IsBenignOutcome(err error) bool {
	return errors.Is(err, ErrNotYetOpen) || errors.Is(err, ErrWindowExpired)
}
