package domain

import (
	"time"

	"github.com/rotadesk/backend/internal/calendar"
	"github.com/rotadesk/backend/internal/overlap"
)

type Holiday struct {
	ID        int64         `json:"id"`
	TenantID  int64         `json:"tenantID"`
	StaffID   int64         `json:"staffID"`
	StartDate calendar.Date `json:"startDate"`
	EndDate   calendar.Date `json:"endDate"`
	Reason    *string       `json:"reason"`
	CreatedBy *int64        `json:"createdBy"`
	CreatedAt time.Time     `json:"createdAt"`
}

func (h *Holiday) Range() overlap.DateRange {
	return overlap.NewDateRange(h.StartDate, h.EndDate)
}

type HolidayRequest struct {
	ID         int64         `json:"id"`
	TenantID   int64         `json:"tenantID"`
	StaffID    int64         `json:"staffID"`
	StartDate  calendar.Date `json:"startDate"`
	EndDate    calendar.Date `json:"endDate"`
	Note       *string       `json:"note"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	ReviewedAt *time.Time    `json:"reviewedAt"`
	ReviewedBy *int64        `json:"reviewedBy"`
}

func (r *HolidayRequest) Range() overlap.DateRange {
	return overlap.NewDateRange(r.StartDate, r.EndDate)
}

func HolidayRanges(holidays []*Holiday) []overlap.DateRange {
	ranges := make([]overlap.DateRange, 0, len(holidays))
	for _, h := range holidays {
		ranges = append(ranges, h.Range())
	}
	return ranges
}

func HolidayRequestRanges(requests []*HolidayRequest) []overlap.DateRange {
	ranges := make([]overlap.DateRange, 0, len(requests))
	for _, r := range requests {
		ranges = append(ranges, r.Range())
	}
	return ranges
}
