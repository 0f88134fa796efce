package game

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExportSession appends a human-readable transcript of a finished game to a
// text file.
func ExportSession(s *Session, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Caption Clash Results - Session %s\n", s.Code))
	sb.WriteString(fmt.Sprintf("Finished: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	sb.WriteString("Players:\n")
	for _, p := range s.players {
		sb.WriteString(fmt.Sprintf("- %s\n", p.Name))
	}
	sb.WriteString("\n")

	for i, round := range s.history {
		sb.WriteString(fmt.Sprintf("Round %d: \"%s\" (judge: %s)\n", i+1, round.Prompt, round.Judge.Name))
		sb.WriteString(strings.Repeat("-", 40) + "\n")
		for _, prop := range round.Proposals {
			marker := ""
			if round.Winner == prop {
				marker = " *winner*"
			}
			sb.WriteString(fmt.Sprintf("- %s: \"%s\"%s\n", prop.Player.Name, prop.Text, marker))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Final standings:\n")
	for _, p := range s.standings() {
		sb.WriteString(fmt.Sprintf("- %s: %d point(s)\n", p.Name, p.Score))
	}
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if _, err := file.WriteString(sb.String()); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	return nil
}
