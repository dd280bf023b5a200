package domain

import "time"

type Shift struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenantID"`
	StaffID   *int64    `json:"staffID"` // nil for an open shift nobody holds
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	RoleTag   string    `json:"roleTag"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Shift) HeldBy(staffID int64) bool {
	return s.StaffID != nil && *s.StaffID == staffID
}

// Hours is the scheduled length of the shift.
func (s *Shift) Hours() float64 {
	return s.EndTime.Sub(s.StartTime).Hours()
}
