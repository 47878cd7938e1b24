package speech_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"notewise/internal/config"
	"notewise/internal/speech"
)

func TestDetectWithoutCommandsYieldsNoop(t *testing.T) {
	caps := speech.Detect(config.Speech{}, nil)
	if caps.CanSpeak || caps.CanListen {
		t.Fatalf("expected no capabilities, got %+v", caps)
	}
	if _, ok := caps.Synthesizer.(speech.Noop); !ok {
		t.Fatalf("expected noop synthesizer, got %T", caps.Synthesizer)
	}
	if err := caps.Synthesizer.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("noop speak: %v", err)
	}
}

func TestDetectMissingBinary(t *testing.T) {
	caps := speech.Detect(config.Speech{SynthesizeCommand: []string{"notewise-definitely-missing-tts"}}, nil)
	if caps.CanSpeak {
		t.Fatal("expected synthesis unavailable")
	}
	if caps.Statuses[0].Detail == "" {
		t.Fatal("expected detail for missing binary")
	}
}

func TestDetectResolvesShell(t *testing.T) {
	caps := speech.Detect(config.Speech{
		SynthesizeCommand: []string{"sh", "-c", "cat >/dev/null"},
		RecognizeCommand:  []string{"sh", "-c", "echo hi"},
	}, nil)
	if !caps.CanSpeak || !caps.CanListen {
		t.Fatalf("expected both capabilities, got %+v", caps.Statuses)
	}
}

func TestNoopTranscriptsClosed(t *testing.T) {
	if _, ok := <-(speech.Noop{}).Transcripts(); ok {
		t.Fatal("expected closed channel")
	}
}

func TestCommandSynthesizerSpeaks(t *testing.T) {
	synth := speech.NewCommandSynthesizer("sh", "-c", "cat >/dev/null")
	if err := synth.Speak(context.Background(), "The capital of France is Paris."); err != nil {
		t.Fatalf("speak: %v", err)
	}
	if err := synth.Stop(); err != nil {
		t.Fatalf("stop idle: %v", err)
	}
}

func TestCommandSynthesizerReportsFailure(t *testing.T) {
	synth := speech.NewCommandSynthesizer("sh", "-c", "exit 3")
	if err := synth.Speak(context.Background(), "text"); err == nil {
		t.Fatal("expected failure from non-zero exit")
	}
}

func TestCommandSynthesizerStopInterrupts(t *testing.T) {
	synth := speech.NewCommandSynthesizer("sh", "-c", "sleep 5")
	done := make(chan error, 1)
	go func() { done <- synth.Speak(context.Background(), "long text") }()

	deadline := time.After(3 * time.Second)
	for {
		time.Sleep(20 * time.Millisecond)
		_ = synth.Stop()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("expected interrupted speak to return nil, got %v", err)
			}
			return
		case <-deadline:
			t.Fatal("speak was not interrupted")
		default:
		}
	}
}

func TestCommandRecognizerDeliversLines(t *testing.T) {
	rec := speech.NewCommandRecognizer("sh", "-c", "printf 'what is the capital\\n\\nof France\\n'")
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	var got []string
	for line := range rec.Transcripts() {
		got = append(got, line)
	}
	if len(got) != 2 || got[0] != "what is the capital" || got[1] != "of France" {
		t.Fatalf("unexpected transcripts %q", got)
	}
	if err := rec.Start(context.Background()); err == nil {
		t.Fatal("expected second start to fail")
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestCommandRecognizerStopClosesChannel(t *testing.T) {
	rec := speech.NewCommandRecognizer("sh", "-c", "sleep 5")
	if err := rec.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case _, ok := <-rec.Transcripts():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("transcripts not closed after stop")
	}
}

func TestSessionLifecycle(t *testing.T) {
	caps := speech.Capabilities{
		NewRecognizer: func() speech.Recognizer {
			return speech.NewCommandRecognizer("sh", "-c", "echo question")
		},
		CanListen: true,
	}
	session := speech.NewSession(caps)
	if err := session.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := session.Open(context.Background()); err != nil {
		t.Fatalf("second open should be a no-op: %v", err)
	}
	line, ok := <-session.Transcripts()
	if !ok || line != "question" {
		t.Fatalf("unexpected transcript %q ok=%v", line, ok)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := session.Open(context.Background()); !errors.Is(err, speech.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := session.Speak(context.Background(), "x"); !errors.Is(err, speech.ErrClosed) {
		t.Fatalf("expected ErrClosed from speak, got %v", err)
	}
}

func TestSessionWithoutRecognizer(t *testing.T) {
	session := speech.NewSession(speech.Capabilities{})
	if session.CanListen() || session.CanSpeak() {
		t.Fatal("expected no capabilities")
	}
	if _, ok := <-session.Transcripts(); ok {
		t.Fatal("expected closed channel when not listening")
	}
	if err := session.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("speak: %v", err)
	}
}
