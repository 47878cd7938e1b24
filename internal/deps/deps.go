// Package deps reports which optional external commands NoteWise can use.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"notewise/internal/config"
)

// Requirement defines an external command an optional capability relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(req))
	}
	return results
}

func check(req Requirement) Status {
	cmd := strings.TrimSpace(req.Command)
	status := Status{
		Name:        req.Name,
		Command:     cmd,
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if cmd == "" {
		status.Detail = "command not configured"
		return status
	}
	resolved, err := exec.LookPath(cmd)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		return status
	}
	status.Command = resolved
	status.Available = true
	return status
}

// SpeechRequirements lists the configured speech commands. Only the program
// name (the first argument) is resolved.
func SpeechRequirements(cfg config.Speech) []Requirement {
	return []Requirement{
		{
			Name:        "Speech synthesis",
			Command:     firstArg(cfg.SynthesizeCommand),
			Description: "Reads notes and summaries aloud (text on stdin)",
			Optional:    true,
		},
		{
			Name:        "Speech recognition",
			Command:     firstArg(cfg.RecognizeCommand),
			Description: "Dictates questions (one transcript per stdout line)",
			Optional:    true,
		},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
