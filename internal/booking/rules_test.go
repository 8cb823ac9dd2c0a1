package booking

import (
	"reflect"
	"testing"
	"time"
)

func day(offset int) time.Time {
	return DateOf(referenceNow).AddDate(0, 0, offset)
}

func TestCapacity(t *testing.T) {
	cases := []struct {
		category Category
		want     int
	}{
		{ClassRoom, 2},
		{MeetingRoom, 1},
		{Category(0), 1},
		{Category(9), 1},
	}
	for _, tc := range cases {
		if got := Capacity(tc.category); got != tc.want {
			t.Fatalf("Capacity(%v): expected %d, got %d", tc.category, tc.want, got)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Run("zero bookings is empty", func(t *testing.T) {
		if got := Classify(0, 2); got != Empty {
			t.Fatalf("expected Empty, got %v", got)
		}
	})
	t.Run("below capacity is partial", func(t *testing.T) {
		if got := Classify(1, 2); got != Partial {
			t.Fatalf("expected Partial, got %v", got)
		}
	})
	t.Run("at or above capacity is full", func(t *testing.T) {
		if got := Classify(2, 2); got != Full {
			t.Fatalf("expected Full, got %v", got)
		}
		if got := Classify(3, 2); got != Full {
			t.Fatalf("expected Full for overbooked slot, got %v", got)
		}
	})
}

func TestCountInSlot(t *testing.T) {
	bookings := []Booking{
		{ID: "b1", RoomID: "r1", AccountID: "a1", Date: day(1), Slot: Slot08To10},
		{ID: "b2", RoomID: "r1", AccountID: "a2", Date: day(1).Add(9 * time.Hour), Slot: Slot08To10},
		{ID: "b3", RoomID: "r1", AccountID: "a3", Date: day(1), Slot: Slot10To12},
		{ID: "b4", RoomID: "r2", AccountID: "a4", Date: day(1), Slot: Slot08To10},
		{ID: "b5", RoomID: "r1", AccountID: "a5", Date: day(2), Slot: Slot08To10},
	}

	if got := CountInSlot(bookings, "r1", day(1), Slot08To10, ""); got != 2 {
		t.Fatalf("expected 2 bookings ignoring time of day, got %d", got)
	}
	if got := CountInSlot(bookings, "r1", day(1), Slot08To10, "b1"); got != 1 {
		t.Fatalf("expected excluded booking to be skipped, got %d", got)
	}
	if got := CountInSlot(bookings, "r3", day(1), Slot08To10, ""); got != 0 {
		t.Fatalf("expected 0 for unknown room, got %d", got)
	}
}

func TestAvailability(t *testing.T) {
	rooms := []Room{
		{ID: "class", Category: ClassRoom, HasSmartBoard: true},
		{ID: "meeting", Category: MeetingRoom},
		{ID: "class-plain", Category: ClassRoom},
	}
	bookings := []Booking{
		{ID: "b1", RoomID: "class", AccountID: "a1", Date: day(1), Slot: Slot12To14},
		{ID: "b2", RoomID: "meeting", AccountID: "a2", Date: day(1), Slot: Slot12To14},
		{ID: "b3", RoomID: "class-plain", AccountID: "a3", Date: day(1), Slot: Slot14To16},
	}

	t.Run("classifies each room in input order", func(t *testing.T) {
		report := Availability(rooms, bookings, day(1), Slot12To14, Filter{})
		if len(report) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(report))
		}
		want := []struct {
			id     string
			count  int
			max    int
			status AvailabilityStatus
		}{
			{"class", 1, 2, Partial},
			{"meeting", 1, 1, Full},
			{"class-plain", 0, 2, Empty},
		}
		for i, w := range want {
			got := report[i]
			if got.Room.ID != w.id || got.Count != w.count || got.MaxBookings != w.max || got.Status != w.status {
				t.Fatalf("entry %d: expected %+v, got id=%s count=%d max=%d status=%v", i, w, got.Room.ID, got.Count, got.MaxBookings, got.Status)
			}
		}
	})

	t.Run("applies category and equipment filters together", func(t *testing.T) {
		category := ClassRoom
		smart := false
		report := Availability(rooms, bookings, day(1), Slot12To14, Filter{Category: &category, HasSmartBoard: &smart})
		if len(report) != 1 || report[0].Room.ID != "class-plain" {
			t.Fatalf("expected only class-plain, got %+v", report)
		}
	})

	t.Run("is deterministic for identical inputs", func(t *testing.T) {
		first := Availability(rooms, bookings, day(1), Slot12To14, Filter{})
		second := Availability(rooms, bookings, day(1), Slot12To14, Filter{})
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("expected identical reports, got %+v and %+v", first, second)
		}
	})
}

func TestExpired(t *testing.T) {
	bookings := []Booking{
		{ID: "old", Date: day(-1)},
		{ID: "today", Date: day(0)},
		{ID: "future", Date: day(4)},
	}
	got := Expired(bookings, referenceNow)
	if len(got) != 1 || got[0].ID != "old" {
		t.Fatalf("expected only the past booking, got %+v", got)
	}
}

func TestParseTimeSlot(t *testing.T) {
	cases := map[string]TimeSlot{
		"0":             Slot08To10,
		"3":             Slot14To16,
		"10:00 - 12:00": Slot10To12,
		"12:00-14:00":   Slot12To14,
	}
	for input, want := range cases {
		got, err := ParseTimeSlot(input)
		if err != nil {
			t.Fatalf("ParseTimeSlot(%q): unexpected error %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseTimeSlot(%q): expected %v, got %v", input, want, got)
		}
	}
	if _, err := ParseTimeSlot("4"); err == nil {
		t.Fatal("expected error for slot outside the four fixed intervals")
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(" Teacher "); err != nil || r != RoleTeacher {
		t.Fatalf("expected teacher, got %q (%v)", r, err)
	}
	if r, err := ParseRole(""); err != nil || r != RoleGeneric {
		t.Fatalf("expected generic for empty role, got %q (%v)", r, err)
	}
	if _, err := ParseRole("janitor"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if !RoleTeacher.RequiresNotice() || RoleAdministrator.RequiresNotice() || RoleStudent.RequiresNotice() {
		t.Fatal("only teachers should be notice-restricted")
	}
}
