package booking

import "fmt"

// Kind identifies which booking rule rejected a request.
type Kind int

const (
	KindPastDate Kind = iota + 1
	KindRoomNotFound
	KindDuplicateUserSlot
	KindBookingLimitExceeded
	KindRoomSlotFull
	KindInsufficientNotice
	KindBookingNotFound
)

var kindNames = map[Kind]string{
	KindPastDate:             "past_date",
	KindRoomNotFound:         "room_not_found",
	KindDuplicateUserSlot:    "duplicate_user_slot",
	KindBookingLimitExceeded: "booking_limit_exceeded",
	KindRoomSlotFull:         "room_slot_full",
	KindInsufficientNotice:   "insufficient_notice",
	KindBookingNotFound:      "booking_not_found",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind_%d", int(k))
}

// Error is a rule violation. It is terminal: the rejected mutation was not applied.
type Error struct {
	Kind    Kind
	Message string
	// Category is set for KindRoomSlotFull so callers can word the message per room type.
	Category Category
}

func (e *Error) Error() string {
	if e.Message == "" {
		return "booking: " + e.Kind.String()
	}
	return e.Message
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrPastDate             = &Error{Kind: KindPastDate}
	ErrRoomNotFound         = &Error{Kind: KindRoomNotFound}
	ErrDuplicateUserSlot    = &Error{Kind: KindDuplicateUserSlot}
	ErrBookingLimitExceeded = &Error{Kind: KindBookingLimitExceeded}
	ErrRoomSlotFull         = &Error{Kind: KindRoomSlotFull}
	ErrInsufficientNotice   = &Error{Kind: KindInsufficientNotice}
	ErrBookingNotFound      = &Error{Kind: KindBookingNotFound}
)

func pastDateError() error {
	return &Error{Kind: KindPastDate, Message: "You cannot create a booking in the past."}
}

func roomNotFoundError(roomID string) error {
	return &Error{Kind: KindRoomNotFound, Message: fmt.Sprintf("The room %q does not exist.", roomID)}
}

func duplicateUserSlotError() error {
	return &Error{Kind: KindDuplicateUserSlot, Message: "You already have a booking in this time slot."}
}

func bookingLimitError() error {
	return &Error{
		Kind:    KindBookingLimitExceeded,
		Message: fmt.Sprintf("You already have %d bookings. Delete a booking before you make a new one.", MaxBookingsPerAccount),
	}
}

func roomSlotFullError(category Category) error {
	msg := "This room is already fully booked in this time slot."
	switch category {
	case ClassRoom:
		msg = fmt.Sprintf("This classroom is already booked by %d users in this time slot.", Capacity(ClassRoom))
	case MeetingRoom:
		msg = "This meeting room is already booked in this time slot."
	}
	return &Error{Kind: KindRoomSlotFull, Message: msg, Category: category}
}

func insufficientNoticeError() error {
	return &Error{
		Kind:    KindInsufficientNotice,
		Message: fmt.Sprintf("The booking can only be edited or deleted with %d days notice.", NoticeDays),
	}
}

func bookingNotFoundError(id string) error {
	return &Error{Kind: KindBookingNotFound, Message: fmt.Sprintf("Booking %q does not exist.", id)}
}
