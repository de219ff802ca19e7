package auth

// Status tags a Result as success or error.
type Status int

const (
	StatusSuccess Status = iota
	StatusError
)

// Kind classifies an error Result.
type Kind int

const (
	KindNone Kind = iota
	// KindValidation: blank or malformed input, weak password, bad email.
	KindValidation
	// KindConflict: the mobile number is already taken.
	KindConflict
	// KindAuthentication: unknown user or wrong password.
	KindAuthentication
	// KindConsistency: no session, or the session has no backing record.
	KindConsistency
	// KindStorage: the underlying store failed.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindConsistency:
		return "consistency"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Result is the outcome of every Manager operation. Message is meant to be
// shown to the user verbatim.
type Result struct {
	Status  Status
	Kind    Kind
	Message string
}

func success(msg string) Result {
	return Result{Status: StatusSuccess, Kind: KindNone, Message: msg}
}

func failure(kind Kind, msg string) Result {
	return Result{Status: StatusError, Kind: kind, Message: msg}
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

func (r Result) String() string {
	if r.OK() {
		return "success: " + r.Message
	}
	return "error: " + r.Message
}
