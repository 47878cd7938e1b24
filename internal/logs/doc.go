// Package logs reads the NoteWise log file for the CLI logs command.
//
// Last returns the final lines of the file; Follow polls for appended lines
// until its context ends. Both tolerate a missing file, which simply means
// nothing has been logged yet.
package logs
