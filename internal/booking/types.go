package booking

import "context"

// RoomType selects which slot table on the availability page is parsed.
type RoomType string

const (
	RoomSilent  RoomType = "silent"
	RoomStudy   RoomType = "study"
	RoomGroup   RoomType = "group"
	RoomSuccess RoomType = "success"
)

// tableIDs maps a room type to the server-side table element id.
var tableIDs = map[RoomType]string{
	RoomSilent:  "silent_study_room_table",       // Silent Study Rooms    N201-N214 (cap 2)
	RoomStudy:   "study_room_table",              // Study Rooms           S221-S234 (cap 2)
	RoomGroup:   "group_discussion_room_table",   // Group Discussion Rooms E231-E236, W241-W246 (cap 4)
	RoomSuccess: "student_success_room_table",    // Student Success Rooms  Room 1-3 (cap 4/10)
}

// TableID returns the portal's table element id for the room type.
// Unknown types fall back to the group discussion table.
func (t RoomType) TableID() string {
	if id, ok := tableIDs[t]; ok {
		return id
	}
	return tableIDs[RoomGroup]
}

// RoomTypes lists the accepted room type names, for flag help text.
func RoomTypes() []string {
	return []string{string(RoomSilent), string(RoomStudy), string(RoomGroup), string(RoomSuccess)}
}

// ParseRoomType validates a room type name from the command line.
func ParseRoomType(s string) (RoomType, bool) {
	t := RoomType(s)
	_, ok := tableIDs[t]
	return t, ok
}

// Slot is one bookable room + time-window combination for a date.
// Field values are carried verbatim from the portal's data attributes;
// the portal expects them echoed back unchanged on booking.
type Slot struct {
	RoomID    string
	RoomName  string
	StartTime string // HH:MM
	EndTime   string // HH:MM
	Date      string // YYYY-MM-DD
}

// Target is one unit of work: book a room of the given type on Date,
// choosing slots according to Select.
type Target struct {
	Date     string // YYYY-MM-DD
	DayName  string // e.g. "Saturday"
	RoomType RoomType
	Select   Selection
}

// Status is the terminal state of one processed target.
type Status string

const (
	StatusBooked  Status = "booked"
	StatusNoSlots Status = "no_slots"
	StatusFailed  Status = "failed"
)

// Outcome records how one target date ended. Immutable once appended
// to a run summary.
type Outcome struct {
	Date     string
	DayName  string
	Status   Status
	RoomName string // set when Status == StatusBooked
	Reason   string // proximate cause when Status == StatusFailed
}

// Discovery is the result of one availability query. Matched is the ranked
// candidate list (document order, index 0 attempted first). Open carries
// every enabled slot regardless of the selection policy so callers can show
// what was available when nothing matched. TableFound distinguishes "table
// absent from the response" from "table present, zero matches"; both leave
// Matched empty.
type Discovery struct {
	Matched    []Slot
	Open       []Slot
	TableFound bool
}

// Portal is the authenticated eServices boundary the orchestrator drives.
// Implementations own the session cookies; the CSRF token is extracted once
// per run and passed back in on every state-changing call.
type Portal interface {
	// Login runs one full login attempt (captcha included) and reports
	// how the portal classified it.
	Login(ctx context.Context, username, password string) error
	// Token fetches the booking page and extracts the anti-forgery token.
	Token(ctx context.Context) (string, error)
	// Slots queries availability for date and filters it through sel.
	// An absent table is not an error.
	Slots(ctx context.Context, date, token string, room RoomType, sel Selection) (Discovery, error)
	// Book commits a reservation for slot. A portal-side rejection is
	// returned as an error; no failure escapes this boundary unclassified.
	Book(ctx context.Context, slot Slot, token string) error
}
