// Package speech provides optional text-to-speech and speech-to-text through
// configured external commands. Capabilities are detected once; when a
// command is missing the corresponding capability is Noop, whose calls
// succeed and do nothing.
package speech

import (
	"context"
	"log/slog"

	"notewise/internal/config"
	"notewise/internal/deps"
	"notewise/internal/logging"
)

// Synthesizer reads text aloud.
type Synthesizer interface {
	Speak(ctx context.Context, text string) error
	Stop() error
}

// Recognizer turns speech into text. Transcripts is closed after Stop or when
// the underlying process exits.
type Recognizer interface {
	Start(ctx context.Context) error
	Stop() error
	Transcripts() <-chan string
}

// Capabilities is the result of detection.
type Capabilities struct {
	Synthesizer Synthesizer
	// NewRecognizer builds a fresh recognizer for each Session.
	NewRecognizer func() Recognizer
	CanSpeak      bool
	CanListen     bool
	Statuses      []deps.Status
}

// Detect resolves the configured commands on PATH.
func Detect(cfg config.Speech, logger *slog.Logger) Capabilities {
	logger = logging.NewComponentLogger(logger, "speech")
	statuses := deps.CheckBinaries(deps.SpeechRequirements(cfg))
	caps := Capabilities{
		Synthesizer:   Noop{},
		NewRecognizer: func() Recognizer { return Noop{} },
		Statuses:      statuses,
	}
	if statuses[0].Available {
		caps.Synthesizer = NewCommandSynthesizer(statuses[0].Command, cfg.SynthesizeCommand[1:]...)
		caps.CanSpeak = true
	}
	if statuses[1].Available {
		program, args := statuses[1].Command, append([]string(nil), cfg.RecognizeCommand[1:]...)
		caps.NewRecognizer = func() Recognizer { return NewCommandRecognizer(program, args...) }
		caps.CanListen = true
	}
	logger.Debug("speech capabilities detected",
		logging.Bool("can_speak", caps.CanSpeak),
		logging.Bool("can_listen", caps.CanListen),
	)
	return caps
}

// Noop is the absent capability.
type Noop struct{}

func (Noop) Speak(context.Context, string) error { return nil }
func (Noop) Start(context.Context) error         { return nil }
func (Noop) Stop() error                         { return nil }

// Transcripts returns a closed channel.
func (Noop) Transcripts() <-chan string {
	ch := make(chan string)
	close(ch)
	return ch
}
