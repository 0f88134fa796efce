package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/captionclash/server/internal/config"
	"github.com/captionclash/server/internal/game"
	"github.com/captionclash/server/internal/registry"
)

type ConnCtx struct {
	Code   string
	Player *game.Player
}

type Server struct {
	reg    *registry.Registry
	config config.Config
}

func New(reg *registry.Registry, cfg config.Config) *Server {
	return &Server{reg: reg, config: cfg}
}

// connSink adapts a socket.io connection to the session's event sink. The
// event is serialized at Send time so the session can keep mutating its
// state after the call returns.
type connSink struct {
	conn socketio.Conn
}

func (cs *connSink) Send(ev game.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event")
		return
	}
	cs.conn.Emit("game:event", json.RawMessage(payload))
}

func (cs *connSink) Disconnect() {
	_ = cs.conn.Close()
}

// Mount attaches the Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	// game:create
	io.OnEvent("/", "game:create", func(s socketio.Conn, payload struct {
		Name string `json:"name"`
	}) map[string]any {
		sess, err := srv.reg.CreateSession()
		if err != nil {
			return srv.err(s, "create_failed", err.Error())
		}
		player := game.NewPlayer(payload.Name, &connSink{conn: s})
		if err := sess.Join(player); err != nil {
			return srv.err(s, "join_failed", err.Error())
		}
		s.SetContext(&ConnCtx{Code: sess.Code, Player: player})
		s.Join(sess.Code)
		log.Info().Str("sid", s.ID()).Str("code", sess.Code).Msg("game:create")
		return map[string]any{"sessionCode": sess.Code, "playerId": player.ID}
	})

	// game:join
	io.OnEvent("/", "game:join", func(s socketio.Conn, payload struct {
		SessionCode string `json:"sessionCode"`
		Name        string `json:"name"`
	}) map[string]any {
		sess, err := srv.reg.Get(payload.SessionCode)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		player := game.NewPlayer(payload.Name, &connSink{conn: s})
		if err := sess.Join(player); err != nil {
			// the session already sent the error event and disconnected
			return map[string]any{"error": err.Error()}
		}
		s.SetContext(&ConnCtx{Code: payload.SessionCode, Player: player})
		s.Join(payload.SessionCode)
		log.Info().Str("sid", s.ID()).Str("code", payload.SessionCode).Str("playerId", player.ID).Msg("game:join")
		return map[string]any{"playerId": player.ID}
	})

	// game:start
	io.OnEvent("/", "game:start", func(s socketio.Conn) map[string]any {
		return srv.dispatch(s, game.Action{Type: game.ActionStart})
	})

	// game:play
	io.OnEvent("/", "game:play", func(s socketio.Conn, payload struct {
		CardID string `json:"cardId"`
	}) map[string]any {
		return srv.dispatch(s, game.Action{Type: game.ActionPlay, CardID: payload.CardID})
	})

	// game:freestyle
	io.OnEvent("/", "game:freestyle", func(s socketio.Conn, payload struct {
		Text string `json:"text"`
	}) map[string]any {
		return srv.dispatch(s, game.Action{Type: game.ActionFreestyle, Text: payload.Text})
	})

	// game:choose
	io.OnEvent("/", "game:choose", func(s socketio.Conn, payload struct {
		Text string `json:"text"`
	}) map[string]any {
		ctx, _ := s.Context().(*ConnCtx)
		if ctx == nil || ctx.Player == nil {
			return srv.err(s, "not_joined", "Join a session first")
		}
		sess, err := srv.reg.Get(ctx.Code)
		if err != nil {
			return srv.err(s, "session_not_found", "Session not found")
		}
		// capture phase around the action so a finished game is exported once
		previous := sess.State()
		sess.Handle(ctx.Player, game.Action{Type: game.ActionChoose, Text: payload.Text})
		if srv.config.ExportEnabled && previous != game.StateFinished && sess.State() == game.StateFinished {
			srv.export(ctx.Code, sess)
		}
		return map[string]any{"ok": true}
	})

	// game:playAgain
	io.OnEvent("/", "game:playAgain", func(s socketio.Conn) map[string]any {
		return srv.dispatch(s, game.Action{Type: game.ActionPlayAgain})
	})

	// game:stop
	io.OnEvent("/", "game:stop", func(s socketio.Conn) map[string]any {
		return srv.dispatch(s, game.Action{Type: game.ActionStop})
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Player != nil {
			if sess, err := srv.reg.Get(ctx.Code); err == nil {
				sess.Leave(ctx.Player)
			}
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) dispatch(s socketio.Conn, a game.Action) map[string]any {
	ctx, _ := s.Context().(*ConnCtx)
	if ctx == nil || ctx.Player == nil {
		return srv.err(s, "not_joined", "Join a session first")
	}
	sess, err := srv.reg.Get(ctx.Code)
	if err != nil {
		return srv.err(s, "session_not_found", "Session not found")
	}
	sess.Handle(ctx.Player, a)
	return map[string]any{"ok": true}
}

func (srv *Server) export(code string, sess *game.Session) {
	if err := game.ExportSession(sess, srv.config.ExportFile); err != nil {
		log.Error().Err(err).Str("code", code).Msg("failed to export game transcript")
		return
	}
	log.Info().Str("code", code).Str("file", srv.config.ExportFile).Msg("exported game transcript")
}

func (srv *Server) err(s socketio.Conn, code, message string) map[string]any {
	s.Emit("error", map[string]any{"code": code, "message": message})
	return map[string]any{"error": message}
}
