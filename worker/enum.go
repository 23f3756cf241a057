package worker

type workerState int

// workerState
const (
	WS_Working    workerState = 0
	WS_Idling     workerState = 1
	WS_Terminated workerState = 2
)

func (s workerState) String() string {
	switch s {
	case WS_Working:
		return "working"
	case WS_Idling:
		return "idling"
	case WS_Terminated:
		return "terminated"
	}
	return "unknown"
}
