package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/app"
	"github.com/dkeye/Parley/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type ChatWSController struct {
	Hub     *app.Hub
	cfg     *config.Config
	limiter *MessageRateLimiter
}

func NewChatWSController(hub *app.Hub, cfg *config.Config) *ChatWSController {
	return &ChatWSController{
		Hub:     hub,
		cfg:     cfg,
		limiter: NewMessageRateLimiter(cfg.MessageLimit, cfg.MessageInterval),
	}
}

// HandleChat upgrades the request and hands the connection to the hub as
// the participant named in the path. A rejected name gets a close frame
// after the handshake; the hub never sees that connection again.
func (ctl *ChatWSController) HandleChat(ctx context.Context, c *gin.Context) {
	name := c.Param("name")
	log.Info().Str("module", "ws").Str("name", name).Msg("new WS connection")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	conn.SetReadLimit(ctl.cfg.ReadLimit)

	wc := newWSConn(conn, ctl.cfg.SendBuffer)

	sess, err := ctl.Hub.OnJoin(name, wc)
	if err != nil {
		log.Warn().Err(err).Str("module", "ws").Str("name", name).Msg("join rejected")
		deadline := time.Now().Add(ctl.cfg.WriteTimeout)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()), deadline)
		wc.Close()
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, sess, wc, cancel)
	go ctl.readPump(ctx, sess, wc, cancel)
}
