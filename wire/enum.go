package wire

type Kind int
type Color int

// Kind
const (
	MK_ScheduleSend   Kind = 1
	MK_SchedulesSend  Kind = 2
	MK_BoundUpdate    Kind = 3
	MK_OptimalPrefix  Kind = 4
	MK_JobRequest     Kind = 5
	MK_JobResponse    Kind = 6
	MK_TokenPass      Kind = 7
	MK_End            Kind = 8
	MK_TasksBroadcast Kind = 9
	MK_Result         Kind = 10
)

// Color
const (
	TC_Green Color = 0
	TC_Red   Color = 1
)

func (k Kind) String() string {
	switch k {
	case MK_ScheduleSend:
		return "SCHEDULE_SEND"
	case MK_SchedulesSend:
		return "SCHEDULES_SEND"
	case MK_BoundUpdate:
		return "BOUND_UPDATE"
	case MK_OptimalPrefix:
		return "OPTIMAL_PREFIX"
	case MK_JobRequest:
		return "JOB_REQUEST"
	case MK_JobResponse:
		return "JOB_REQUEST_RESPONSE"
	case MK_TokenPass:
		return "TOKEN_PASS"
	case MK_End:
		return "END"
	case MK_TasksBroadcast:
		return "TASKS_BROADCAST"
	case MK_Result:
		return "RESULT"
	}
	return "UNKNOWN"
}

func (c Color) String() string {
	if c == TC_Red {
		return "red"
	}
	return "green"
}
