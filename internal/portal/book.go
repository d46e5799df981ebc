package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/example/xmum-booking/internal/booking"
)

type bookResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Book commits a reservation for slot. The slot's fields are echoed back
// verbatim; the portal validates them against its own state. A nil return
// means the portal confirmed the booking (code 200); any other code comes
// back as *BookingError. Transport failures and malformed JSON surface as
// their own error types so the caller can always record a terminal status
// for the date.
func (c *Client) Book(ctx context.Context, slot booking.Slot, token string) error {
	form := url.Values{
		"_token":           {token},
		"bookingRoomId":    {slot.RoomID},
		"bookingDate":      {slot.Date},
		"bookingStartTime": {slot.StartTime},
		"bookingEndTime":   {slot.EndTime},
	}
	body, err := c.postForm(ctx, "book room", c.abs(bookPath), form, ajaxHeaders(token))
	if err != nil {
		return err
	}

	var res bookResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return fmt.Errorf("%w: booking response: %v", ErrParse, err)
	}
	if res.Code != 200 {
		return &BookingError{Code: res.Code, Message: res.Message}
	}
	return nil
}
