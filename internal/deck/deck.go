// Package deck supplies shuffled caption and prompt cards from assets
// compiled into the binary. The supply is effectively endless: an exhausted
// pile is silently rebuilt and reshuffled.
package deck

import (
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/captionclash/server/internal/game"
)

//go:embed assets/cards.json
var assets embed.FS

// one freestyle wildcard is mixed in per this many caption cards
const freestyleEvery = 8

type cardFile struct {
	Captions []string `json:"captions"`
	Prompts  []string `json:"prompts"`
}

type Deck struct {
	captions []string
	prompts  []string

	captionPile []game.Card
	promptPile  []string
}

func New() (*Deck, error) {
	raw, err := assets.ReadFile("assets/cards.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read card assets: %w", err)
	}
	var cf cardFile
	if err := json.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse card assets: %w", err)
	}
	if len(cf.Captions) == 0 || len(cf.Prompts) == 0 {
		return nil, fmt.Errorf("card assets are empty")
	}
	d := &Deck{captions: cf.Captions, prompts: cf.Prompts}
	d.Reshuffle()
	return d, nil
}

func (d *Deck) NextCaptionCard() game.Card {
	if len(d.captionPile) == 0 {
		d.captionPile = d.buildCaptionPile()
	}
	card := d.captionPile[len(d.captionPile)-1]
	d.captionPile = d.captionPile[:len(d.captionPile)-1]
	return card
}

func (d *Deck) NextPromptRound(judge *game.Player) *game.Meme {
	if len(d.promptPile) == 0 {
		d.promptPile = d.buildPromptPile()
	}
	prompt := d.promptPile[len(d.promptPile)-1]
	d.promptPile = d.promptPile[:len(d.promptPile)-1]
	return &game.Meme{Prompt: prompt, Judge: judge}
}

func (d *Deck) Reshuffle() {
	d.captionPile = d.buildCaptionPile()
	d.promptPile = d.buildPromptPile()
}

// buildCaptionPile stamps a fresh ID on every card so reshuffled copies
// never collide with cards still held in hands.
func (d *Deck) buildCaptionPile() []game.Card {
	pile := make([]game.Card, 0, len(d.captions)+len(d.captions)/freestyleEvery)
	for i, text := range d.captions {
		pile = append(pile, game.Card{ID: uuid.NewString(), Type: game.CardText, Text: text})
		if (i+1)%freestyleEvery == 0 {
			pile = append(pile, game.Card{ID: uuid.NewString(), Type: game.CardFreestyle})
		}
	}
	rand.Shuffle(len(pile), func(i, j int) { pile[i], pile[j] = pile[j], pile[i] })
	return pile
}

func (d *Deck) buildPromptPile() []string {
	pile := make([]string, len(d.prompts))
	copy(pile, d.prompts)
	rand.Shuffle(len(pile), func(i, j int) { pile[i], pile[j] = pile[j], pile[i] })
	return pile
}
