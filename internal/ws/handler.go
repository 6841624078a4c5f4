package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/card-duel-backend/internal/hub"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

type Options struct {
	IdleTimeout  time.Duration // max silence from the client before the socket is dropped
	WriteTimeout time.Duration
	OutboxSize   int
	// OriginPatterns loosens the same-origin check, e.g. "localhost:*" in dev.
	OriginPatterns []string
}

func (o Options) withDefaults() Options {
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 5 * time.Minute
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 3 * time.Second
	}
	if o.OutboxSize <= 0 {
		o.OutboxSize = 32
	}
	return o
}

// Handler upgrades the request to a WebSocket and bridges it to the hub:
// one reader loop forwards frames as Inbound, one writer drains the outbox.
func Handler(h *hub.Hub, opts Options, log *zap.Logger) http.HandlerFunc {
	opts = opts.withDefaults()
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			log.Debug("websocket accept", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		out := make(chan []byte, opts.OutboxSize)
		reply := make(chan string, 1)
		if !h.Send(ctx, hub.Connect{Outbox: out, Reply: reply}) {
			conn.Close(websocket.StatusTryAgainLater, "server shutting down")
			return
		}
		sessionID, ok := awaitSession(ctx, h, reply)
		if !ok {
			return
		}
		// Disconnect uses a fresh context: the request one may already be done.
		defer h.Send(context.Background(), hub.Disconnect{SessionID: sessionID})

		// Writer goroutine. The hub closes out when the session ends.
		go func() {
			for payload := range out {
				wctx, cancel := context.WithTimeout(ctx, opts.WriteTimeout)
				err := conn.Write(wctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					conn.CloseNow()
					return
				}
			}
			conn.Close(websocket.StatusNormalClosure, "session closed")
		}()

		// Reader loop
		for {
			rctx, cancel := context.WithTimeout(ctx, opts.IdleTimeout)
			typ, data, err := conn.Read(rctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					if !errors.Is(err, context.Canceled) {
						log.Debug("websocket read", zap.String("session", sessionID), zap.Error(err))
					}
				}
				return
			}
			if typ != websocket.MessageText {
				continue
			}
			if !h.Send(ctx, hub.Inbound{SessionID: sessionID, Payload: data}) {
				return
			}
		}
	}
}

// awaitSession waits for the id of a session the hub is registering. If ctx
// ends first, the session is still released once its id arrives.
func awaitSession(ctx context.Context, h *hub.Hub, reply <-chan string) (string, bool) {
	select {
	case id := <-reply:
		return id, true
	case <-ctx.Done():
		go func() {
			select {
			case id := <-reply:
				h.Send(context.Background(), hub.Disconnect{SessionID: id})
			case <-h.Done():
			}
		}()
		return "", false
	}
}
