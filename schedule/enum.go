package schedule

type Verdict int

// Verdict
const (
	V_Valid    Verdict = 0
	V_Late     Verdict = 1 // a scheduled task finished after its deadline
	V_Deadline Verdict = 2 // some unscheduled task can no longer meet its deadline
	V_Bound    Verdict = 3 // lower bound is not better than the current upper bound
)

func (v Verdict) String() string {
	switch v {
	case V_Valid:
		return "valid"
	case V_Late:
		return "late"
	case V_Deadline:
		return "deadline"
	case V_Bound:
		return "bound"
	}
	return "unknown"
}

// Separator splits the scheduled prefix from the unscheduled remainder in
// the flat encoding of a Schedule.
const Separator = -1
