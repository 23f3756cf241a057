// Package wire defines the messages exchanged between ranks and their
// binary frame format.
//
// Every message kind is a distinct Go type implementing Message; the set
// is closed. Frames are protobuf wire format (see codec.go) so that they
// can travel inside a gRPC BytesValue without generated code.
package wire

type Message interface {
	Kind() Kind
	sealed()
}

// Envelope is a message together with the rank that sent it.
type Envelope struct {
	From int
	Msg  Message
}

// ScheduleSend transfers one schedule in its flat encoding.
type ScheduleSend struct {
	Seq []int
}

// SchedulesSend transfers a batch of schedules.
type SchedulesSend struct {
	Seqs [][]int
}

type BoundUpdate struct {
	Bound int
}

// OptimalPrefix announces a prefix whose best completion is optimal. The
// receiver discards every queued schedule the prefix supersedes.
type OptimalPrefix struct {
	Prefix []int // scheduled task indices
}

type JobRequest struct{}

type JobResponse struct {
	Accept bool
}

type TokenPass struct {
	Color Color
}

type End struct{}

// TasksBroadcast carries the task table as processTime/releaseTime/deadline
// triples.
type TasksBroadcast struct {
	Triples []int
}

// Result carries a rank's best solution as task indices in scheduled
// order. Empty when the rank found no feasible solution.
type Result struct {
	Order []int
}

func (ScheduleSend) Kind() Kind   { return MK_ScheduleSend }
func (SchedulesSend) Kind() Kind  { return MK_SchedulesSend }
func (BoundUpdate) Kind() Kind    { return MK_BoundUpdate }
func (OptimalPrefix) Kind() Kind  { return MK_OptimalPrefix }
func (JobRequest) Kind() Kind     { return MK_JobRequest }
func (JobResponse) Kind() Kind    { return MK_JobResponse }
func (TokenPass) Kind() Kind      { return MK_TokenPass }
func (End) Kind() Kind            { return MK_End }
func (TasksBroadcast) Kind() Kind { return MK_TasksBroadcast }
func (Result) Kind() Kind         { return MK_Result }

func (ScheduleSend) sealed()   {}
func (SchedulesSend) sealed()  {}
func (BoundUpdate) sealed()    {}
func (OptimalPrefix) sealed()  {}
func (JobRequest) sealed()     {}
func (JobResponse) sealed()    {}
func (TokenPass) sealed()      {}
func (End) sealed()            {}
func (TasksBroadcast) sealed() {}
func (Result) sealed()         {}
