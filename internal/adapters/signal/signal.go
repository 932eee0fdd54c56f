package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Liberty76220/LibertyTalk/internal/app"
	"github.com/Liberty76220/LibertyTalk/internal/config"
	"github.com/Liberty76220/LibertyTalk/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// SignalWSController owns the websocket endpoint: one connection per
// session, decoded frames dispatched to the orchestrator and relay.
type SignalWSController struct {
	Orch    *app.Orchestrator
	Relay   *app.Relay
	Limiter *app.JoinRateLimiter
	Cfg     *config.Config
}

func NewSignalWSController(orch *app.Orchestrator, relay *app.Relay, limiter *app.JoinRateLimiter, cfg *config.Config) *SignalWSController {
	return &SignalWSController{Orch: orch, Relay: relay, Limiter: limiter, Cfg: cfg}
}

type wsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	// Session identity is assigned per connection, not per browser: two
	// tabs sharing the ct cookie must never collide in the registry.
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).
		Str("client", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := &wsSignalConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.Bind(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}
