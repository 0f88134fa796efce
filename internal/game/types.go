package game

import (
	"time"

	"github.com/google/uuid"
)

type CardType string

const (
	CardText      CardType = "text"
	CardFreestyle CardType = "freestyle"
)

// Card is a caption card in a player's hand. Freestyle cards carry no text;
// the player composes their own after playing one.
type Card struct {
	ID   string   `json:"id"`
	Type CardType `json:"type"`
	Text string   `json:"text,omitempty"`
}

type Player struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Score    int       `json:"score"`
	IsHost   bool      `json:"isHost"`
	JoinedAt time.Time `json:"joinedAt"`

	Hand []Card `json:"-"`

	sink EventSink
}

func NewPlayer(name string, sink EventSink) *Player {
	return &Player{
		ID:       uuid.NewString(),
		Name:     name,
		JoinedAt: time.Now().UTC(),
		sink:     sink,
	}
}

// Proposal is one player's submitted caption for the current round.
type Proposal struct {
	Player *Player `json:"player"`
	Text   string  `json:"text"`
}

// Meme is one judged unit of play: a prompt, its judge, the submitted
// proposals in insertion order and, once decided, the winning proposal.
type Meme struct {
	Prompt    string      `json:"prompt"`
	Judge     *Player     `json:"judge"`
	Proposals []*Proposal `json:"proposals"`
	Winner    *Proposal   `json:"winner,omitempty"`
}

func (m *Meme) proposalBy(playerID string) *Proposal {
	for _, p := range m.Proposals {
		if p.Player.ID == playerID {
			return p
		}
	}
	return nil
}

func (m *Meme) removeProposal(playerID string) {
	for i, p := range m.Proposals {
		if p.Player.ID == playerID {
			m.Proposals = append(m.Proposals[:i], m.Proposals[i+1:]...)
			return
		}
	}
}

// Deck supplies shuffled prompt and caption cards. Implementations may
// reshuffle on exhaustion; the session never observes an empty deck. The
// session only calls the deck while holding its own lock, so implementations
// need no locking of their own.
type Deck interface {
	NextCaptionCard() Card
	NextPromptRound(judge *Player) *Meme
	Reshuffle()
}

// EventSink delivers events to one player's transport. Send must not block
// the caller; a slow or dead connection is the sink's problem, not the
// session's.
type EventSink interface {
	Send(Event)
	Disconnect()
}
