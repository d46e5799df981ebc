package booking

// Selection is the slot filtering policy for one target date: either any
// open slot qualifies, or only slots whose window literally equals
// Start–End do. Matching is string equality on the portal's HH:MM values,
// deliberately: the portal generates both sides, so normalizing would only
// add failure modes.
type Selection struct {
	anyTime bool
	Start   string
	End     string
}

// AnyTime accepts every open slot in table order.
func AnyTime() Selection { return Selection{anyTime: true} }

// ExactWindow accepts only slots whose start and end equal the given times.
func ExactWindow(start, end string) Selection {
	return Selection{Start: start, End: end}
}

// Any reports whether the policy accepts any open slot.
func (s Selection) Any() bool { return s.anyTime }

// Matches reports whether slot satisfies the policy.
func (s Selection) Matches(slot Slot) bool {
	if s.anyTime {
		return true
	}
	return slot.StartTime == s.Start && slot.EndTime == s.End
}

// Filter returns the slots matching s, preserving document order. The
// result is the ranked candidate list: callers attempt index 0 first.
func (s Selection) Filter(slots []Slot) []Slot {
	var out []Slot
	for _, sl := range slots {
		if s.Matches(sl) {
			out = append(out, sl)
		}
	}
	return out
}
