package domain

// ScreeningResponse is handed back to the platform's call-screening hook,
// which performs the actual call disposition.
type ScreeningResponse struct {
	Disallow         bool
	Reject           bool
	SkipCallLog      bool
	SkipNotification bool
}

// AllowResponse lets the call through untouched.
func AllowResponse() ScreeningResponse { return ScreeningResponse{} }

// RejectResponse disallows and rejects the call while keeping it in the call
// log and leaving the system notification pipeline active.
func RejectResponse() ScreeningResponse {
	return ScreeningResponse{
		Disallow:         true,
		Reject:           true,
		SkipCallLog:      false,
		SkipNotification: false,
	}
}

// ResponseFor maps a verdict onto the platform response.
func ResponseFor(v Verdict) ScreeningResponse {
	if v == Reject {
		return RejectResponse()
	}
	return AllowResponse()
}
