package stage

import (
	"strings"

	"notewise/internal/services"
)

// RequireNotes rejects a blank NotesText snapshot before any model call.
func RequireNotes(stageName, notes string) error {
	if strings.TrimSpace(notes) == "" {
		return services.Wrap(services.ErrPrecondition, "stage", stageName,
			"Failed to obtain notes content for processing.", nil)
	}
	return nil
}
