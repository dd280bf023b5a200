package domain

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
)

var transitionMap = map[RequestStatus][]RequestStatus{
	StatusPending: {StatusApproved, StatusRejected},
}

// ValidTransition reports whether a request may move from one status to another.
// Approved and rejected are terminal.
func ValidTransition(from, to RequestStatus) bool {
	for _, next := range transitionMap[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s RequestStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}
