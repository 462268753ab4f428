package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/rs/zerolog"

	"github.com/tanpawarit/travelai/agent/classify"
	contractx "github.com/tanpawarit/travelai/agent/contract"
	logx "github.com/tanpawarit/travelai/pkg/logger"
	"github.com/tanpawarit/travelai/pkg/metrics"
)

const inboxSize = 16

type connection struct {
	ctx       context.Context
	cancel    context.CancelFunc
	conn      net.Conn
	sessionID string
	cfg       Config
	turns     TurnProcessor
	log       *zerolog.Logger
}

func newConnection(parent context.Context, conn net.Conn, sessionID string, cfg Config, turns TurnProcessor) *connection {
	ctx, cancel := context.WithCancel(logx.WithSession(parent, sessionID))
	return &connection{
		ctx:       ctx,
		cancel:    cancel,
		conn:      conn,
		sessionID: sessionID,
		cfg:       cfg,
		turns:     turns,
		log:       logx.Ctx(ctx),
	}
}

// serve reads frames on one goroutine and runs turns on the caller's, so a
// session never has two turns in flight and only this goroutine writes.
func (c *connection) serve() {
	defer c.cancel()

	inbox := make(chan string, inboxSize)
	go c.readLoop(inbox)

	for text := range inbox {
		c.runTurn(text)
	}
}

func (c *connection) readLoop(inbox chan<- string) {
	defer close(inbox)
	// A dropped connection cancels the turn in flight.
	defer c.cancel()

	for {
		data, op, err := wsutil.ReadClientData(c.conn)
		if err != nil {
			var closed wsutil.ClosedError
			if !errors.As(err, &closed) && c.ctx.Err() == nil {
				c.log.Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
		if op != ws.OpText {
			metrics.RecordDroppedInbound(dropBinary)
			continue
		}

		text, reason := decodeInbound(data, c.cfg.MaxMessageBytes)
		if reason != "" {
			metrics.RecordDroppedInbound(reason)
			c.log.Debug().Str("reason", reason).Msg("inbound frame dropped")
			continue
		}

		select {
		case inbox <- text:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *connection) runTurn(text string) {
	res, err := c.turns.ProcessTurn(c.ctx, c.sessionID, text)
	if c.ctx.Err() != nil {
		// Nobody is listening; the orchestrator already discarded the turn.
		return
	}
	if err != nil {
		c.log.Error().Err(err).Msg("turn failed")
		c.send(classify.Error(errorText(err)))
		return
	}

	events, err := classify.Classify(c.ctx, res.Tail)
	if err != nil {
		return
	}
	for _, ev := range events {
		if !c.send(ev) {
			return
		}
	}
}

func (c *connection) send(ev classify.Event) bool {
	raw, err := json.Marshal(ev)
	if err != nil {
		c.log.Error().Err(err).Str("type", string(ev.Type)).Msg("encode event")
		return false
	}
	if c.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if err := wsutil.WriteServerMessage(c.conn, ws.OpText, raw); err != nil {
		c.log.Warn().Err(err).Msg("websocket write failed")
		c.cancel()
		return false
	}
	metrics.RecordEvent(string(ev.Type))
	return true
}

// errorText is the client-facing description of a failed turn.
func errorText(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Bir hata oluştu: yanıt zaman aşımına uğradı"
	case errors.Is(err, contractx.ErrModelInvoke), errors.Is(err, contractx.ErrSchemaViolation):
		return "Bir hata oluştu: dil modeli yanıt veremedi"
	default:
		return "Bir hata oluştu: " + err.Error()
	}
}
