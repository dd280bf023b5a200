package domain

import "time"

type SwapRequest struct {
	ID            int64         `json:"id"`
	TenantID      int64         `json:"tenantID"`
	ShiftID       int64         `json:"shiftID"`
	RequestedBy   int64         `json:"requestedBy"`
	RequestedWith *int64        `json:"requestedWith"` // nil means any eligible staff member
	Status        RequestStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	ReviewedAt    *time.Time    `json:"reviewedAt"`
	ReviewedBy    *int64        `json:"reviewedBy"`
}

func (s *SwapRequest) IsOpen() bool {
	return s.RequestedWith == nil
}
