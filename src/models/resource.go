package models

import (
	"eventpass/src/types"
	"time"
)

// Resource is a bookable venue such as a hall or lab.
type Resource struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Name     string `gorm:"size:120;not null" json:"name"`
	Location string `json:"location,omitempty"`
	Timezone string `gorm:"size:64;not null;default:'UTC'" json:"timezone"`

	types.Timestamps
}

// ResourceBooking reserves a resource every day from StartDate to EndDate
// (inclusive) between StartTime and EndTime.
type ResourceBooking struct {
	ID          uint                `gorm:"primarykey" json:"id"`
	ResourceID  uint                `gorm:"not null;index:idx_resource_bookings_dates" json:"resource_id"`
	EventID     *uint               `json:"event_id,omitempty"`
	RequestedBy string              `gorm:"size:120" json:"requested_by"`
	StartDate   time.Time           `gorm:"type:date;not null;index:idx_resource_bookings_dates" json:"start_date"`
	EndDate     time.Time           `gorm:"type:date;not null;index:idx_resource_bookings_dates" json:"end_date"`
	StartTime   string              `gorm:"size:5;not null" json:"start_time"`
	EndTime     string              `gorm:"size:5;not null" json:"end_time"`
	Purpose     string              `json:"purpose,omitempty"`
	Status      types.BookingStatus `gorm:"size:16;not null;default:'pending'" json:"status"`

	Resource *Resource `gorm:"foreignKey:resource_id" json:"-"`

	types.Timestamps
}
