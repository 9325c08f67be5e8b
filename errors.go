package sadl

// Error represents a container or codec error code.
//
// Every failure returned by this package matches exactly one Error with
// errors.Is; wrapped errors add the channel and block position.
type Error int

// Error codes.
const (
	ErrNone                  Error = 0
	ErrFormat                Error = 1 // Bad magic or malformed header
	ErrUnsupportedCoding     Error = 2 // Coding nibble other than IMA or Procyon
	ErrUnsupportedSampleRate Error = 3 // Rate selector other than 2 or 4
	ErrTruncatedStream       Error = 4 // Buffer shorter than the declared size
	ErrInvalidBlock          Error = 5 // Coefficient index out of table range
	ErrInvalidChannels       Error = 6 // Zero channels, or sample buffers not matching the channel count
	ErrInvalidSampleCount    Error = 7 // Channel sample buffers of unequal length
	ErrInvalidLoop           Error = 8 // Negative loop start
)

// errMessages contains the message for each error code.
var errMessages = [9]string{
	"No error",
	"Not a SADL stream (bad magic or malformed header)",
	"Unsupported coding",
	"Unsupported sample rate",
	"Stream truncated before declared size",
	"Invalid block (coefficient index out of range)",
	"Invalid channel count",
	"Channel sample buffers differ in length",
	"Invalid loop start",
}

// Error implements the error interface.
func (e Error) Error() string {
	if e >= 0 && int(e) < len(errMessages) {
		return errMessages[e]
	}
	return "unknown error"
}

// GetErrorMessage returns the error message for an error code.
func GetErrorMessage(code Error) string {
	return code.Error()
}
