// Package preflight provides readiness checks for the directories and
// services NoteWise depends on.
//
// The serve command runs RunAll once at startup and logs any failures. The
// CLI "notewise status" command renders the same results next to the session
// summary. Checks never block processing; a missing credential surfaces again
// as a configuration error on the first model call.
package preflight
