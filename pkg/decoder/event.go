package decoder

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Event is emitted by the decoder for each part and for terminal conditions
type Event interface {
	event()
}

// FieldEvent is a text field. The name and value are truncated to the
// configured limits, in which case the corresponding flag is set.
type FieldEvent struct {
	Name           string
	Value          string
	NameTruncated  bool
	ValueTruncated bool
}

// FileEvent is a file part. Filename is empty when the part declared an
// empty filename. The consumer must read Stream to EOF or close it before
// the decoder continues with the next part.
type FileEvent struct {
	Field    string
	Stream   *Stream
	Filename string
	Encoding string
	MimeType string
}

// ErrorEvent reports a malformed body. No further events follow.
type ErrorEvent struct {
	Err error
}

// LimitEvent reports that an aggregate limit was reached. It is sent once
// per limit; parts beyond the limit are skipped.
type LimitEvent struct {
	Limit Limit
}

// FinishEvent reports that the body was consumed. No further events follow.
type FinishEvent struct{}

// Limit identifies an aggregate count limit
type Limit int

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	_ Limit = iota
	LimitParts
	LimitFiles
	LimitFields
)

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (FieldEvent) event()  {}
func (FileEvent) event()   {}
func (ErrorEvent) event()  {}
func (LimitEvent) event()  {}
func (FinishEvent) event() {}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (l Limit) String() string {
	switch l {
	case LimitParts:
		return "parts"
	case LimitFiles:
		return "files"
	case LimitFields:
		return "fields"
	default:
		return "unknown"
	}
}
