package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxBookingsPerAccount caps the number of bookings a single account may hold.
	MaxBookingsPerAccount = 5
	// NoticeDays is the minimum number of whole days a notice-restricted role
	// must leave between today and the booking date when editing or deleting.
	NoticeDays = 3
)

// Category classifies a room and determines how many bookings a slot accepts.
type Category int

const (
	ClassRoom   Category = 1
	MeetingRoom Category = 2
)

// Valid reports whether the category is one of the known room categories.
func (c Category) Valid() bool {
	return c == ClassRoom || c == MeetingRoom
}

func (c Category) String() string {
	switch c {
	case ClassRoom:
		return "ClassRoom"
	case MeetingRoom:
		return "MeetingRoom"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// ParseCategory accepts either the numeric code or the category name.
func ParseCategory(value string) (Category, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		c := Category(n)
		if !c.Valid() {
			return 0, fmt.Errorf("booking: unknown room category %d", n)
		}
		return c, nil
	}
	switch strings.ToLower(value) {
	case "classroom":
		return ClassRoom, nil
	case "meetingroom", "meeting_room", "meeting-room":
		return MeetingRoom, nil
	}
	return 0, fmt.Errorf("booking: unknown room category %q", value)
}

// TimeSlot is one of the four fixed two-hour booking intervals of a day.
type TimeSlot int

const (
	Slot08To10 TimeSlot = iota
	Slot10To12
	Slot12To14
	Slot14To16
)

var slotLabels = [...]string{
	Slot08To10: "08:00 - 10:00",
	Slot10To12: "10:00 - 12:00",
	Slot12To14: "12:00 - 14:00",
	Slot14To16: "14:00 - 16:00",
}

// TimeSlots lists every bookable slot in chronological order.
func TimeSlots() []TimeSlot {
	return []TimeSlot{Slot08To10, Slot10To12, Slot12To14, Slot14To16}
}

func (s TimeSlot) Valid() bool {
	return s >= Slot08To10 && s <= Slot14To16
}

func (s TimeSlot) String() string {
	if !s.Valid() {
		return fmt.Sprintf("TimeSlot(%d)", int(s))
	}
	return slotLabels[s]
}

// StartHour returns the hour of day the slot begins at.
func (s TimeSlot) StartHour() int {
	return 8 + 2*int(s)
}

// ParseTimeSlot accepts the numeric slot index or its display label.
func ParseTimeSlot(value string) (TimeSlot, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		s := TimeSlot(n)
		if !s.Valid() {
			return 0, fmt.Errorf("booking: unknown time slot %d", n)
		}
		return s, nil
	}
	compact := strings.ReplaceAll(value, " ", "")
	for i, label := range slotLabels {
		if compact == strings.ReplaceAll(label, " ", "") {
			return TimeSlot(i), nil
		}
	}
	return 0, fmt.Errorf("booking: unknown time slot %q", value)
}

// Role is the closed set of account roles.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleTeacher       Role = "teacher"
	RoleStudent       Role = "student"
	RoleGeneric       Role = "generic"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleTeacher, RoleStudent, RoleGeneric:
		return true
	}
	return false
}

// RequiresNotice reports whether the role is subject to the minimum notice
// rule on edit and delete.
func (r Role) RequiresNotice() bool {
	return r == RoleTeacher
}

// ParseRole normalises a role name. An empty value maps to RoleGeneric.
func ParseRole(value string) (Role, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return RoleGeneric, nil
	}
	r := Role(value)
	if !r.Valid() {
		return "", fmt.Errorf("booking: unknown role %q", value)
	}
	return r, nil
}

// Room is a bookable room. Its per-slot capacity is derived from Category.
type Room struct {
	ID            string
	Name          string
	Description   string
	Location      string
	Category      Category
	HasSmartBoard bool
}

// Booking reserves one slot of a room on a calendar date for an account.
type Booking struct {
	ID          string
	RoomID      string
	AccountID   string
	Date        time.Time
	Slot        TimeSlot
	Description string
}

// AvailabilityStatus summarises how occupied a room slot is.
type AvailabilityStatus int

const (
	Empty AvailabilityStatus = iota
	Partial
	Full
)

func (s AvailabilityStatus) String() string {
	switch s {
	case Empty:
		return "empty"
	case Partial:
		return "partial"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("AvailabilityStatus(%d)", int(s))
	}
}

// RoomAvailability is the computed occupancy of one room for a date and slot.
type RoomAvailability struct {
	Room        Room
	Count       int
	MaxBookings int
	Status      AvailabilityStatus
}

// Filter narrows an availability report. Nil fields do not filter.
type Filter struct {
	Category      *Category
	HasSmartBoard *bool
}

// Matches reports whether the room satisfies every filter that is set.
func (f Filter) Matches(room Room) bool {
	if f.Category != nil && room.Category != *f.Category {
		return false
	}
	if f.HasSmartBoard != nil && room.HasSmartBoard != *f.HasSmartBoard {
		return false
	}
	return true
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from one date to another.
func DaysBetween(from, to time.Time) int {
	return int(DateOf(to).Sub(DateOf(from)).Hours() / 24)
}
