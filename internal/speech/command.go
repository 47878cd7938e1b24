package speech

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

var commandContext = exec.CommandContext

// CommandSynthesizer pipes text to an external program on stdin.
type CommandSynthesizer struct {
	program string
	args    []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewCommandSynthesizer constructs a synthesizer for program and args.
func NewCommandSynthesizer(program string, args ...string) *CommandSynthesizer {
	return &CommandSynthesizer{program: program, args: args}
}

// Speak blocks until the program exits. A concurrent Speak stops the
// previous utterance first.
func (s *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	_ = s.Stop()

	cmd := commandContext(ctx, s.program, s.args...) //nolint:gosec
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start synthesizer: %w", err)
	}
	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	err := cmd.Wait()

	s.mu.Lock()
	stopped := s.cmd != cmd
	if !stopped {
		s.cmd = nil
	}
	s.mu.Unlock()
	if err != nil && !stopped && ctx.Err() == nil {
		return fmt.Errorf("synthesizer failed: %w", err)
	}
	return nil
}

// Stop interrupts the current utterance, if any.
func (s *CommandSynthesizer) Stop() error {
	s.mu.Lock()
	cmd := s.cmd
	s.cmd = nil
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("stop synthesizer: %w", err)
	}
	return nil
}

// CommandRecognizer runs an external program and treats each non-empty
// stdout line as one transcript.
type CommandRecognizer struct {
	program string
	args    []string

	mu          sync.Mutex
	cmd         *exec.Cmd
	cancel      context.CancelFunc
	transcripts chan string
	done        chan struct{}
}

// NewCommandRecognizer constructs a recognizer for program and args.
func NewCommandRecognizer(program string, args ...string) *CommandRecognizer {
	return &CommandRecognizer{program: program, args: args, transcripts: make(chan string, 16)}
}

// Start launches the program. A recognizer can be started once.
func (r *CommandRecognizer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != nil {
		return errors.New("recognizer already started")
	}
	runCtx, cancel := context.WithCancel(ctx)
	cmd := commandContext(runCtx, r.program, r.args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start recognizer: %w", err)
	}
	r.cmd = cmd
	r.cancel = cancel
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		defer close(r.transcripts)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case r.transcripts <- line:
			case <-runCtx.Done():
				_ = cmd.Wait()
				return
			}
		}
		_ = cmd.Wait()
	}()
	return nil
}

// Stop terminates the program and waits for the transcript channel to close.
func (r *CommandRecognizer) Stop() error {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Transcripts delivers recognized lines.
func (r *CommandRecognizer) Transcripts() <-chan string {
	return r.transcripts
}
