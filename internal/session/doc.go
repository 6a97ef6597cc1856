// Package session implements the edit session state machine.
//
// At most one cell is open at a time. A session moves through:
//
//	Closed --Open--> OpenView | OpenEdit
//	OpenEdit --Commit--> Closed
//	OpenEdit --Discard--> Closed
//	Open*    --Close--> Closed
//
// The mode is fixed when the session opens: OpenEdit iff edit mode was enabled
// at that moment. Descriptive fields (subject, room, time) are staged in a
// private copy and only leave the session through Commit. The checklist is not
// staged: toggles are applied to the store directly by the caller and mirrored
// here with MirrorAssignments so the open session shows live values.
package session
