// Package http exposes the room booking API over JSON.
//
// Every route except GET /healthz requires the X-Account-ID header naming an
// existing account; the account's role authorises the request.
//
//   - GET /bookings?search=&sort=date|-date, POST /bookings, PUT /bookings/{id},
//     DELETE /bookings/{id}. Listing first removes bookings dated before today.
//   - GET /accounts/{id}/bookings
//   - GET /availability?date=YYYY-MM-DD&slot=0..3&category=1|2&smart_board=true|false
//   - GET /rooms, POST /rooms, GET /rooms/{id}, PUT /rooms/{id}, DELETE /rooms/{id}
//   - GET /accounts, POST /accounts, GET /accounts/{id}, PUT /accounts/{id},
//     DELETE /accounts/{id}
//   - GET /notifications[?all=true], POST /notifications/{id}/read
//
// Errors are returned as {"error_code","message","errors"}. Booking rule
// violations use the rule kind as error_code: past_date and
// insufficient_notice answer 422, room_not_found and booking_not_found 404,
// duplicate_user_slot, booking_limit_exceeded and room_slot_full 409.
package http
