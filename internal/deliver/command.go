// ============================================================================
// voicekey - Push-to-Talk Dictation
// ============================================================================
//
// Package:     deliver
// Description: Voice command table, matching and execution
// License:     MIT
// ============================================================================

package deliver

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"voicekey/pkg/core/logging"
)

// VoiceCommand maps a spoken trigger phrase to an executable
type VoiceCommand struct {
	// Trigger is the spoken phrase, matched case-insensitively anywhere
	// in the transcript on word boundaries
	Trigger string `yaml:"trigger"`

	// Exec is the program to run
	Exec string `yaml:"exec"`

	// Args are fixed arguments; spoken words after the trigger are
	// appended
	Args []string `yaml:"args,omitempty"`

	// Description shows up in logs and listings
	Description string `yaml:"description,omitempty"`
}

type commandFile struct {
	Commands []VoiceCommand `yaml:"commands"`
}

// LoadCommands reads the YAML command table. A missing file yields an
// empty table, not an error; dictation works without commands.
func LoadCommands(path string) ([]VoiceCommand, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading command table: %w", err)
	}

	var f commandFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing command table: %w", err)
	}

	for i, c := range f.Commands {
		if strings.TrimSpace(c.Trigger) == "" {
			return nil, fmt.Errorf("command %d has an empty trigger", i)
		}
		if strings.TrimSpace(c.Exec) == "" {
			return nil, fmt.Errorf("command %q has no exec", c.Trigger)
		}
	}
	return f.Commands, nil
}

// Matcher resolves transcripts to voice commands. When several triggers
// occur in the same transcript the longest one wins, so "open browser
// tab" beats "open browser".
type Matcher struct {
	commands []VoiceCommand
}

// NewMatcher builds a matcher; triggers are normalized once here
func NewMatcher(commands []VoiceCommand) *Matcher {
	normalized := make([]VoiceCommand, len(commands))
	copy(normalized, commands)
	for i := range normalized {
		normalized[i].Trigger = normalizePhrase(normalized[i].Trigger)
	}
	// Longest trigger first; the first hit is the winner.
	sort.SliceStable(normalized, func(a, b int) bool {
		return len(normalized[a].Trigger) > len(normalized[b].Trigger)
	})
	return &Matcher{commands: normalized}
}

// Match finds the command whose trigger occurs in the transcript, on
// word boundaries; filler around the trigger ("please open browser
// now") does not defeat it. The second return is the spoken remainder
// after the trigger.
func (m *Matcher) Match(transcript string) (VoiceCommand, string, bool) {
	phrase := normalizePhrase(transcript)
	if phrase == "" {
		return VoiceCommand{}, "", false
	}

	for _, c := range m.commands {
		if rest, ok := containsPhrase(phrase, c.Trigger); ok {
			return c, rest, true
		}
	}
	return VoiceCommand{}, "", false
}

// containsPhrase reports whether trigger appears in phrase as whole
// words, and returns the words spoken after it.
func containsPhrase(phrase, trigger string) (string, bool) {
	if phrase == trigger {
		return "", true
	}
	padded := " " + phrase + " "
	idx := strings.Index(padded, " "+trigger+" ")
	if idx == -1 {
		return "", false
	}
	rest := padded[idx+len(trigger)+2:]
	return strings.TrimSpace(rest), true
}

// Len returns the number of loaded commands
func (m *Matcher) Len() int {
	return len(m.commands)
}

// normalizePhrase lowercases, strips punctuation and collapses
// whitespace, so "Open Browser." matches the trigger "open browser".
func normalizePhrase(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '\t', r == '\n':
			b.WriteRune(r)
		case r == '\'':
			// keep contractions: "don't stop"
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// CommandSink pairs a matcher with an executor. Dispatch reports
// whether any trigger matched; the controller uses that to signal a
// miss to the user.
type CommandSink struct {
	matcher *Matcher
	exec    *Executor
	log     *logging.Logger
}

// NewCommandSink builds the sink from a loaded command table
func NewCommandSink(commands []VoiceCommand, log *logging.Logger) *CommandSink {
	return &CommandSink{
		matcher: NewMatcher(commands),
		exec:    NewExecutor(log),
		log:     log,
	}
}

// Dispatch matches the transcript and fires the command
func (s *CommandSink) Dispatch(transcript string) bool {
	cmd, remainder, ok := s.matcher.Match(transcript)
	if !ok {
		s.log.Debug("no trigger matched", "transcript", transcript)
		return false
	}
	s.exec.Run(cmd, remainder)
	return true
}

// Executor runs matched commands without waiting for them. A dictation
// session must not block on a browser starting up.
type Executor struct {
	log *logging.Logger
}

// NewExecutor creates a fire-and-forget command runner
func NewExecutor(log *logging.Logger) *Executor {
	return &Executor{log: log}
}

// Run starts the command with the spoken remainder appended as
// arguments. Start failures are logged, never returned; the session is
// already over when the command runs.
func (e *Executor) Run(cmd VoiceCommand, remainder string) {
	args := append([]string{}, cmd.Args...)
	if remainder != "" {
		args = append(args, strings.Fields(remainder)...)
	}

	c := exec.Command(cmd.Exec, args...)
	if err := c.Start(); err != nil {
		e.log.Error("voice command failed to start",
			"trigger", cmd.Trigger, "exec", cmd.Exec, "error", err)
		return
	}

	e.log.Info("voice command started",
		"trigger", cmd.Trigger, "exec", cmd.Exec, "pid", c.Process.Pid)

	// Reap the child so it never lingers as a zombie.
	go c.Wait()
}
