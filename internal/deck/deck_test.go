package deck

import (
	"testing"

	"github.com/captionclash/server/internal/game"
)

func TestNewLoadsAssets(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("should load embedded assets: %v", err)
	}
	if len(d.captionPile) == 0 || len(d.promptPile) == 0 {
		t.Fatal("piles should be built on construction")
	}
}

func TestCaptionSupplyIsEndless(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seen := make(map[string]bool)
	freestyles := 0
	for i := 0; i < 500; i++ {
		c := d.NextCaptionCard()
		if c.ID == "" {
			t.Fatal("every card needs an ID")
		}
		if seen[c.ID] {
			t.Fatalf("card ID %s handed out twice", c.ID)
		}
		seen[c.ID] = true
		switch c.Type {
		case game.CardText:
			if c.Text == "" {
				t.Fatal("text cards must carry a caption")
			}
		case game.CardFreestyle:
			if c.Text != "" {
				t.Fatal("freestyle cards carry no preset text")
			}
			freestyles++
		default:
			t.Fatalf("unexpected card type %s", c.Type)
		}
	}
	if freestyles == 0 {
		t.Fatal("the pile should mix in freestyle wildcards")
	}
}

func TestPromptSupplyIsEndless(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	judge := game.NewPlayer("judy", nil)
	for i := 0; i < 100; i++ {
		m := d.NextPromptRound(judge)
		if m.Prompt == "" {
			t.Fatal("round needs a prompt")
		}
		if m.Judge != judge {
			t.Fatal("round should carry the assigned judge")
		}
		if len(m.Proposals) != 0 || m.Winner != nil {
			t.Fatal("fresh rounds start empty")
		}
	}
}

func TestReshuffleRebuildsPiles(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	full := len(d.captionPile)
	for i := 0; i < 10; i++ {
		d.NextCaptionCard()
	}
	d.Reshuffle()
	if len(d.captionPile) != full {
		t.Fatalf("reshuffle should rebuild the full pile, got %d of %d", len(d.captionPile), full)
	}
}
