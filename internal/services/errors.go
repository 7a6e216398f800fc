package services

import "errors"

// Error taxonomy. Handlers map these to HTTP status codes with errors.Is;
// every validation error short-circuits before any persistence.
var (
	ErrNoSuchUser           = errors.New("no registered user found with that email")
	ErrDuplicateEmail       = errors.New("a user with this email already exists")
	ErrInvalidCredential    = errors.New("email or password is incorrect")
	ErrUnauthorized         = errors.New("admin role required")
	ErrNotLoggedIn          = errors.New("no active login session")
	ErrIncompleteAnswers    = errors.New("all questions must be answered")
	ErrInvalidTrainingType  = errors.New("unknown training type")
	ErrSessionAlreadyActive = errors.New("an active training session already exists")
	ErrNoActiveSession      = errors.New("no active training session")
	ErrHealthCheckRequired  = errors.New("complete the health declaration before starting training")
	ErrHealthCheckStale     = errors.New("health declaration is older than 10 minutes")
)
