package game

type EventType string

const (
	EventPlayerJoined       EventType = "playerJoined"
	EventCurrentPlayers     EventType = "currentPlayers"
	EventSuccessfullyJoined EventType = "successfullyJoined"
	EventPlayerLeft         EventType = "playerLeft"
	EventNewHost            EventType = "newHost"
	EventJudgeChanged       EventType = "judgeChanged"
	EventNewCards           EventType = "newCards"
	EventCollecting         EventType = "collecting"
	EventRoundUpdate        EventType = "roundUpdate"
	EventJudging            EventType = "judging"
	EventRoundDecided       EventType = "roundDecided"
	EventGameEnded          EventType = "gameEnded"
	EventPlayAgainAvailable EventType = "playAgainAvailable"
	EventError              EventType = "error"
)

// Event is the single outbound message shape. Only the fields relevant to
// the type are set; everything else stays omitted on the wire.
type Event struct {
	Type      EventType `json:"type"`
	Player    *Player   `json:"player,omitempty"`
	Players   []*Player `json:"players,omitempty"`
	Cards     []Card    `json:"cards,omitempty"`
	Round     *Meme     `json:"round,omitempty"`
	Standings []*Player `json:"standings,omitempty"`
	ErrorKind string    `json:"errorKind,omitempty"`
}

type ActionType string

const (
	ActionStart     ActionType = "start"
	ActionPlay      ActionType = "play"
	ActionFreestyle ActionType = "freestyle"
	ActionChoose    ActionType = "choose"
	ActionPlayAgain ActionType = "playAgain"
	ActionStop      ActionType = "stop"
)

// Action is an inbound player command. CardID is set for play, Text for
// freestyle and choose.
type Action struct {
	Type   ActionType `json:"type"`
	CardID string     `json:"cardId,omitempty"`
	Text   string     `json:"text,omitempty"`
}
