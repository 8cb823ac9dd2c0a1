package persistence

import "time"

// Account represents a user account with its role tag.
type Account struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a bookable room catalog entry. Category holds the numeric
// room category code.
type Room struct {
	ID            string
	Name          string
	Description   string
	Location      string
	Category      int
	HasSmartBoard bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Booking represents a reserved slot. Date is stored as a calendar date and
// TimeSlot as the slot index.
type Booking struct {
	ID          string
	RoomID      string
	AccountID   string
	Date        time.Time
	TimeSlot    int
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Notification is a message addressed to one account.
type Notification struct {
	ID        string
	AccountID string
	Message   string
	IsRead    bool
	CreatedAt time.Time
}
