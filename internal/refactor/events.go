package refactor

// Stage is a phase of a project-wide inline.
type Stage string

const (
	StageSearch  Stage = "search"
	StageReplace Stage = "replace"
	StageImports Stage = "imports"
	StageShorten Stage = "shorten"
)

// Status is the state of a file within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped" // some usages of the file were left untouched
	StatusError   Status = "error"
)

// Event reports progress of one file. File is empty for batch-wide events.
type Event struct {
	// Title is set on the first event of a batch.
	Title    string
	File     string
	Stage    Stage
	Status   Status
	Usages   int
	Replaced int
	Err      error
}

// Sink receives progress events.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

type nopSink struct{}

func (nopSink) OnEvent(Event) {}
