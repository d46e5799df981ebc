package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"goa.design/clue/log"
	"golang.org/x/net/html"

	"github.com/example/xmum-booking/internal/booking"
)

// The availability endpoint returns a JSON envelope wrapping a rendered
// HTML fragment; the slot data lives in data attributes on the booking
// buttons inside the room-type's table.
type availabilityEnvelope struct {
	HTML string `json:"html"`
}

// Slots queries availability for date and filters the open slots through
// sel. Disabled buttons are already-booked slots and are skipped. Calling
// twice against unchanged portal state yields the same ordered result.
func (c *Client) Slots(ctx context.Context, date, token string, room booking.RoomType, sel booking.Selection) (booking.Discovery, error) {
	query := url.Values{"bookingDate": {date}}
	body, err := c.get(ctx, "fetch availability", c.abs(bookingPath), query, ajaxHeaders(token))
	if err != nil {
		return booking.Discovery{}, err
	}

	var env availabilityEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return booking.Discovery{}, fmt.Errorf("%w: availability envelope: %v", ErrParse, err)
	}

	doc, err := html.Parse(strings.NewReader(env.HTML))
	if err != nil {
		return booking.Discovery{}, fmt.Errorf("%w: availability fragment: %v", ErrParse, err)
	}

	tableID := room.TableID()
	table := findNode(doc, func(n *html.Node) bool {
		return isElement(n, "table") && attrVal(n, "id") == tableID
	})
	if table == nil {
		// Distinct condition from "table present, zero matches" — the page
		// layout changed or the room type is closed for the date.
		log.Printf(ctx, "room table %q not found in availability response", tableID)
		return booking.Discovery{TableFound: false}, nil
	}

	var open []booking.Slot
	eachNode(table, func(n *html.Node) {
		if !isElement(n, "button") || !hasClass(n, "booking-btn") || hasAttr(n, "disabled") {
			return
		}
		open = append(open, booking.Slot{
			RoomID:    attrVal(n, "data-booking-room-id"),
			RoomName:  attrVal(n, "data-booking-room-name"),
			StartTime: attrVal(n, "data-booking-start-time"),
			EndTime:   attrVal(n, "data-booking-end-time"),
			Date:      attrVal(n, "data-booking-date"),
		})
	})

	log.Debugf(ctx, "availability for %s: %d open, table=%s", date, len(open), tableID)
	return booking.Discovery{
		Matched:    sel.Filter(open),
		Open:       open,
		TableFound: true,
	}, nil
}
