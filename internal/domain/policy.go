package domain

// SelfApprovalFunc reports whether reviewer is the person who raised a request owned by requester.
type SelfApprovalFunc func(requester *Staff, reviewer Actor) bool

// LinkedToReviewer matches the requester's linked account against the reviewer's account.
func LinkedToReviewer(requester *Staff, reviewer Actor) bool {
	return requester != nil && requester.LinkedUserID != nil && *requester.LinkedUserID == reviewer.AccountID
}
