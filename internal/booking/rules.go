package booking

import (
	"sort"
	"time"
)

// Capacity returns how many bookings a single room slot accepts for the category.
// Unknown categories get the conservative capacity of one.
func Capacity(category Category) int {
	switch category {
	case ClassRoom:
		return 2
	case MeetingRoom:
		return 1
	default:
		return 1
	}
}

// Classify maps a booking count against a capacity onto an availability status.
func Classify(count, capacity int) AvailabilityStatus {
	switch {
	case count <= 0:
		return Empty
	case count < capacity:
		return Partial
	default:
		return Full
	}
}

// CountInSlot counts bookings for the room on the date and slot. A booking whose
// id equals excludeID is skipped so an update never counts against itself.
func CountInSlot(bookings []Booking, roomID string, date time.Time, slot TimeSlot, excludeID string) int {
	day := DateOf(date)
	count := 0
	for _, b := range bookings {
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if b.RoomID == roomID && b.Slot == slot && DateOf(b.Date).Equal(day) {
			count++
		}
	}
	return count
}

// HasAccountSlot reports whether the account already holds any booking on the
// date and slot, in any room.
func HasAccountSlot(bookings []Booking, accountID string, date time.Time, slot TimeSlot) bool {
	day := DateOf(date)
	for _, b := range bookings {
		if b.AccountID == accountID && b.Slot == slot && DateOf(b.Date).Equal(day) {
			return true
		}
	}
	return false
}

// CountForAccount counts every booking held by the account regardless of date.
func CountForAccount(bookings []Booking, accountID string) int {
	count := 0
	for _, b := range bookings {
		if b.AccountID == accountID {
			count++
		}
	}
	return count
}

// Availability computes one report entry per room passing the filter, in room order.
// It is a pure function of its arguments.
func Availability(rooms []Room, bookings []Booking, date time.Time, slot TimeSlot, filter Filter) []RoomAvailability {
	report := make([]RoomAvailability, 0, len(rooms))
	for _, room := range rooms {
		if !filter.Matches(room) {
			continue
		}
		capacity := Capacity(room.Category)
		count := CountInSlot(bookings, room.ID, date, slot, "")
		report = append(report, RoomAvailability{
			Room:        room,
			Count:       count,
			MaxBookings: capacity,
			Status:      Classify(count, capacity),
		})
	}
	return report
}

// Expired returns the bookings dated strictly before today.
func Expired(bookings []Booking, today time.Time) []Booking {
	today = DateOf(today)
	var out []Booking
	for _, b := range bookings {
		if DateOf(b.Date).Before(today) {
			out = append(out, b)
		}
	}
	return out
}

func checkNotice(role Role, date, today time.Time) error {
	if !role.RequiresNotice() {
		return nil
	}
	if DaysBetween(today, date) < NoticeDays {
		return insufficientNoticeError()
	}
	return nil
}

// SortByDate orders bookings by date then slot, keeping ties stable.
func SortByDate(bookings []Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		di, dj := DateOf(bookings[i].Date), DateOf(bookings[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return bookings[i].Slot < bookings[j].Slot
	})
}
