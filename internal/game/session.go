package game

import (
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const handSize = 7

// minPlayers is the smallest roster a running game can survive with: one
// judge and at least two competing proposals.
const minPlayers = 3

var (
	ErrSessionStarted  = errors.New("session_already_started")
	ErrNotHost         = errors.New("only_host")
	ErrMinimumPlayers  = errors.New("minimum_three_players")
	ErrJudgeCannotPlay = errors.New("judge_cannot_play")
	ErrCardNotInHand   = errors.New("card_not_in_hand")
	ErrAlreadyPlayed   = errors.New("already_played")
	ErrCardNotPlayed   = errors.New("card_not_played")
	ErrOnlyJudge       = errors.New("only_judge_can_choose")
	ErrIllegalAction   = errors.New("illegal_action")
	ErrTooManyDropouts = errors.New("too_many_dropouts")
)

type SessionConfig struct {
	// Rounds is the number of full judge cycles per game; every player
	// judges this many times before the game finishes.
	Rounds int `json:"rounds"`
}

// Session is the single point of truth for one game. All shared state below
// mu is only touched while holding it; every public operation runs
// validation, mutation and event emission inside one critical section.
type Session struct {
	ID        string
	Code      string
	CreatedAt time.Time
	Config    SessionConfig

	mu         sync.Mutex
	state      State
	players    []*Player
	judgeIndex int
	round      *Meme
	history    []*Meme
	// players who played a freestyle card this round and still owe text
	pendingFreestyle map[string]bool

	deck Deck
	log  zerolog.Logger

	// fired exactly once, after the critical section, so the registry can
	// reuse the code immediately
	onTerminated func(*Session)
}

func NewSession(code string, cfg SessionConfig, deck Deck, onTerminated func(*Session), log zerolog.Logger) *Session {
	if cfg.Rounds <= 0 {
		cfg.Rounds = 1
	}
	return &Session{
		ID:               uuid.NewString(),
		Code:             code,
		CreatedAt:        time.Now().UTC(),
		Config:           cfg,
		state:            StateIdle,
		pendingFreestyle: make(map[string]bool),
		deck:             deck,
		log:              log.With().Str("session", code).Logger(),
		onTerminated:     onTerminated,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Players returns a snapshot of the roster in its current order.
func (s *Session) Players() []*Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Player, len(s.players))
	copy(out, s.players)
	return out
}

// Join admits a player into an idle session. The first joiner becomes host.
// Joining a started session rejects and disconnects the newcomer without
// touching state.
func (s *Session) Join(p *Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		p.sink.Send(Event{Type: EventError, ErrorKind: ErrSessionStarted.Error()})
		p.sink.Disconnect()
		return ErrSessionStarted
	}
	if len(s.players) == 0 {
		p.IsHost = true
	}
	s.broadcast(Event{Type: EventPlayerJoined, Player: p})
	p.sink.Send(Event{Type: EventCurrentPlayers, Players: s.roster()})
	s.players = append(s.players, p)
	p.sink.Send(Event{Type: EventSuccessfullyJoined, Player: p})
	s.log.Info().Str("player", p.Name).Int("roster", len(s.players)).Msg("player joined")
	return nil
}

// Leave removes a player from the roster, promoting a new host and
// reassigning the judge as needed. An empty roster, or a running game
// dropping below three players, terminates the session.
func (s *Session) Leave(p *Player) {
	s.mu.Lock()
	fire := s.leaveLocked(p)
	s.mu.Unlock()
	if fire {
		s.onTerminated(s)
	}
}

func (s *Session) leaveLocked(p *Player) (terminated bool) {
	if s.state == StateTerminated {
		return false
	}
	idx := -1
	for i, q := range s.players {
		if q.ID == p.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.players = append(s.players[:idx], s.players[idx+1:]...)
	s.log.Info().Str("player", p.Name).Int("roster", len(s.players)).Msg("player left")

	if len(s.players) == 0 {
		return s.terminateLocked()
	}
	if s.running() && len(s.players) < minPlayers {
		s.broadcast(Event{Type: EventError, ErrorKind: ErrTooManyDropouts.Error()})
		return s.terminateLocked()
	}
	s.judgeIndex %= len(s.players)

	if p.IsHost {
		p.IsHost = false
		s.players[0].IsHost = true
		s.broadcast(Event{Type: EventNewHost, Player: s.players[0]})
	}
	if s.round != nil && (s.round.Judge.ID == p.ID || s.round.proposalBy(p.ID) != nil || s.pendingFreestyle[p.ID]) {
		delete(s.pendingFreestyle, p.ID)
		s.round.removeProposal(p.ID)
		s.round.Judge = s.players[s.judgeIndex]
		s.round.removeProposal(s.round.Judge.ID)
		delete(s.pendingFreestyle, s.round.Judge.ID)
		s.broadcast(Event{Type: EventJudgeChanged, Player: s.round.Judge})
	}
	// a shrinking roster can complete the round on its own
	s.syncRoundLocked()
	s.broadcast(Event{Type: EventPlayerLeft, Player: p})
	return false
}

// Handle dispatches an inbound action by (current state, action kind). Any
// pair outside the table answers the originator with an illegal-action
// error and leaves state untouched.
func (s *Session) Handle(p *Player, a Action) {
	s.mu.Lock()
	fire := s.handleLocked(p, a)
	s.mu.Unlock()
	if fire {
		s.onTerminated(s)
	}
}

func (s *Session) handleLocked(p *Player, a Action) (terminated bool) {
	if s.state == StateTerminated {
		return false
	}
	switch {
	case a.Type == ActionStop:
		return s.stopLocked(p)
	case a.Type == ActionStart && s.state == StateIdle:
		s.startLocked(p)
	case a.Type == ActionPlay && (s.state == StateCollecting || s.state == StateFreestyling):
		s.playLocked(p, a.CardID)
	case a.Type == ActionFreestyle && s.state == StateFreestyling:
		s.freestyleLocked(p, a.Text)
	case a.Type == ActionChoose && s.state == StateJudging:
		s.chooseLocked(p, a.Text)
	case a.Type == ActionPlayAgain && s.state == StateFinished:
		s.playAgainLocked(p)
	default:
		s.sendError(p, ErrIllegalAction)
	}
	return false
}

func (s *Session) startLocked(p *Player) {
	if !p.IsHost {
		s.sendError(p, ErrNotHost)
		return
	}
	if len(s.players) < minPlayers {
		s.sendError(p, ErrMinimumPlayers)
		return
	}
	rand.Shuffle(len(s.players), func(i, j int) {
		s.players[i], s.players[j] = s.players[j], s.players[i]
	})
	for _, q := range s.players {
		q.Hand = make([]Card, 0, handSize)
		for i := 0; i < handSize; i++ {
			q.Hand = append(q.Hand, s.deck.NextCaptionCard())
		}
		q.sink.Send(Event{Type: EventNewCards, Cards: q.Hand})
	}
	s.startRoundLocked()
}

func (s *Session) playLocked(p *Player, cardID string) {
	if s.round.Judge.ID == p.ID {
		s.sendError(p, ErrJudgeCannotPlay)
		return
	}
	cardIdx := -1
	for i, c := range p.Hand {
		if c.ID == cardID {
			cardIdx = i
			break
		}
	}
	if cardIdx < 0 {
		s.sendError(p, ErrCardNotInHand)
		return
	}
	if s.round.proposalBy(p.ID) != nil || s.pendingFreestyle[p.ID] {
		s.sendError(p, ErrAlreadyPlayed)
		return
	}
	card := p.Hand[cardIdx]
	p.Hand = append(p.Hand[:cardIdx], p.Hand[cardIdx+1:]...)

	if card.Type == CardFreestyle {
		s.pendingFreestyle[p.ID] = true
		if s.state == StateCollecting {
			if !s.transitionLocked(StateFreestyling) {
				return
			}
		}
	} else {
		s.registerProposalLocked(p, card.Text)
	}

	replacement := s.deck.NextCaptionCard()
	p.Hand = append(p.Hand, replacement)
	p.sink.Send(Event{Type: EventNewCards, Cards: []Card{replacement}})
}

func (s *Session) freestyleLocked(p *Player, text string) {
	if s.round.Judge.ID == p.ID {
		s.sendError(p, ErrJudgeCannotPlay)
		return
	}
	if s.round.proposalBy(p.ID) != nil {
		s.sendError(p, ErrAlreadyPlayed)
		return
	}
	if !s.pendingFreestyle[p.ID] {
		s.sendError(p, ErrIllegalAction)
		return
	}
	delete(s.pendingFreestyle, p.ID)
	s.registerProposalLocked(p, text)
}

func (s *Session) chooseLocked(p *Player, text string) {
	if s.round.Judge.ID != p.ID {
		s.sendError(p, ErrOnlyJudge)
		return
	}
	var winner *Proposal
	for _, prop := range s.round.Proposals {
		if prop.Text == text {
			winner = prop
			break
		}
	}
	if winner == nil {
		s.sendError(p, ErrCardNotPlayed)
		return
	}
	s.round.Winner = winner
	winner.Player.Score++
	decided := s.round
	s.history = append(s.history, decided)
	s.judgeIndex = (s.judgeIndex + 1) % len(s.players)

	if s.judgeIndex == 0 && len(s.history) >= s.Config.Rounds*len(s.players) {
		if !s.transitionLocked(StateFinished) {
			return
		}
		s.round = nil
		s.broadcast(Event{Type: EventRoundDecided, Round: decided})
		s.broadcast(Event{Type: EventGameEnded, Standings: s.standings()})
		s.broadcast(Event{Type: EventPlayAgainAvailable})
		s.log.Info().Int("rounds", len(s.history)).Msg("game finished")
		return
	}
	s.broadcast(Event{Type: EventRoundDecided, Round: decided})
	s.startRoundLocked()
}

func (s *Session) playAgainLocked(p *Player) {
	if !p.IsHost {
		s.sendError(p, ErrNotHost)
		return
	}
	if !s.transitionLocked(StateIdle) {
		return
	}
	s.history = nil
	s.round = nil
	s.pendingFreestyle = make(map[string]bool)
	s.deck.Reshuffle()
	for _, q := range s.players {
		q.Hand = nil
		q.Score = 0
	}
	rand.Shuffle(len(s.players), func(i, j int) {
		s.players[i], s.players[j] = s.players[j], s.players[i]
	})
	s.judgeIndex = 0
	s.broadcast(Event{Type: EventCurrentPlayers, Players: s.roster()})
	s.log.Info().Msg("session reset for a new game")
}

func (s *Session) stopLocked(p *Player) (terminated bool) {
	if !p.IsHost {
		s.sendError(p, ErrNotHost)
		return false
	}
	return s.terminateLocked()
}

func (s *Session) terminateLocked() bool {
	if !s.transitionLocked(StateTerminated) {
		return false
	}
	for _, q := range s.players {
		q.sink.Disconnect()
	}
	s.log.Info().Msg("session terminated")
	return true
}

// startRoundLocked draws the next prompt, seats the judge by the current
// rotation index and opens the collecting phase.
func (s *Session) startRoundLocked() {
	judge := s.players[s.judgeIndex]
	round := s.deck.NextPromptRound(judge)
	if !s.transitionLocked(StateCollecting) {
		return
	}
	s.round = round
	s.pendingFreestyle = make(map[string]bool)
	s.broadcast(Event{Type: EventCollecting, Round: round})
}

func (s *Session) registerProposalLocked(p *Player, text string) {
	s.round.Proposals = append(s.round.Proposals, &Proposal{Player: p, Text: text})
	s.broadcast(Event{Type: EventRoundUpdate, Round: s.round})
	s.syncRoundLocked()
}

// syncRoundLocked settles the collecting/freestyling/judging phase after the
// proposal list or roster changed: the round moves to judging exactly when
// every non-judge has proposed, and the freestyling tag drains back to
// collecting once no composer is pending.
func (s *Session) syncRoundLocked() {
	if s.round == nil || (s.state != StateCollecting && s.state != StateFreestyling) {
		return
	}
	if len(s.round.Proposals) >= len(s.players)-1 {
		if !s.transitionLocked(StateJudging) {
			return
		}
		s.broadcast(Event{Type: EventJudging, Round: s.round})
		return
	}
	if s.state == StateFreestyling && len(s.pendingFreestyle) == 0 {
		s.transitionLocked(StateCollecting)
	}
}

// transitionLocked applies a state change if the table allows it. An
// out-of-table transition is an internal consistency violation: it is
// logged, nothing reaches a sink, and the caller aborts.
func (s *Session) transitionLocked(to State) bool {
	if !canTransition(s.state, to) {
		s.log.Error().Err(errInvalidTransition{from: s.state, to: to}).Msg("internal consistency violation")
		return false
	}
	s.log.Debug().Str("from", string(s.state)).Str("to", string(to)).Msg("state transition")
	s.state = to
	return true
}

func (s *Session) running() bool {
	switch s.state {
	case StateCollecting, StateFreestyling, StateJudging:
		return true
	}
	return false
}

func (s *Session) broadcast(ev Event) {
	for _, q := range s.players {
		q.sink.Send(ev)
	}
}

func (s *Session) sendError(p *Player, err error) {
	p.sink.Send(Event{Type: EventError, ErrorKind: err.Error()})
}

func (s *Session) roster() []*Player {
	out := make([]*Player, len(s.players))
	copy(out, s.players)
	return out
}

func (s *Session) standings() []*Player {
	out := s.roster()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
