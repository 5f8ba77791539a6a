package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Parley/internal/core"
)

func (ctl *ChatWSController) writePump(ctx context.Context, sess core.Session, c *wsConn, cancel context.CancelFunc) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		c.Close()
		ctl.Hub.OnLeave(sess)
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "ws").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *ChatWSController) readPump(ctx context.Context, sess core.Session, c *wsConn, cancel context.CancelFunc) {
	name := sess.Meta().Name
	defer func() {
		log.Info().Str("module", "ws").Str("name", string(name)).Msg("readPump closing")
		cancel()
		c.Close()
		ctl.Hub.OnLeave(sess)
		ctl.limiter.Forget(name)
	}()

	// The pong deadline outlives one ping period so a single delayed pong
	// does not kill the connection.
	pongWait := ctl.cfg.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "ws").Str("name", string(name)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure) {
					log.Error().Err(err).Str("module", "ws").Str("name", string(name)).Msg("readPump read error")
				}
				return
			}
			if !ctl.limiter.Allow(name) {
				log.Warn().Str("module", "ws").Str("name", string(name)).Msg("rate limit hit, message dropped")
				continue
			}
			if err := ctl.Hub.OnMessage(sess, data); err != nil {
				log.Warn().Err(err).Str("module", "ws").Str("name", string(name)).Msg("message dropped")
			}
		}
	}
}
