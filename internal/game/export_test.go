package game

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportSessionWritesTranscript(t *testing.T) {
	s, _, _ := newTestSession(1)
	players, _ := joinPlayers(t, s, "ana", "bob", "cleo")
	s.Handle(players[0], Action{Type: ActionStart})
	for s.state != StateFinished {
		playRound(t, s)
	}

	file := filepath.Join(t.TempDir(), "results.txt")
	if err := ExportSession(s, file); err != nil {
		t.Fatalf("ExportSession: %v", err)
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("reading transcript: %v", err)
	}
	out := string(raw)

	for _, p := range players {
		if !strings.Contains(out, p.Name) {
			t.Fatalf("transcript should mention %s", p.Name)
		}
	}
	if !strings.Contains(out, "Session TEST1") {
		t.Fatal("transcript should carry the session code")
	}
	if !strings.Contains(out, "Final standings:") {
		t.Fatal("transcript should close with the standings")
	}
	if strings.Count(out, "*winner*") != 3 {
		t.Fatalf("each decided round should mark its winner, got %d markers", strings.Count(out, "*winner*"))
	}
	if !strings.Contains(out, "Round 3:") {
		t.Fatal("all three rounds should appear")
	}
}
