package grid

// Version constants for the persisted format and the program.
const (
	// FormatVersion is the suffix of the persisted key names. Changing it
	// starts every device from a fresh snapshot.
	FormatVersion = "v1"

	// AppVersion is the timetable program version.
	AppVersion = "0.1.0"
)
