package stream

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"quantum_bot/internal/models"
)

// Client — one WebSocket tick stream with a batch of symbols subscribed in
// args. Reconnects with a short sleep on any read/dial error; the consumer
// only sees a channel of ticks.
type Client struct {
	url    string
	dialer *websocket.Dialer
}

func NewClient(url string) *Client {
	return &Client{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// StreamTicks subscribes to the tickers channel for every symbol and emits
// parsed ticks until ctx is cancelled. The channel is closed on return.
func (c *Client) StreamTicks(ctx context.Context, symbols []string) <-chan models.Tick {
	ch := make(chan models.Tick)

	go func() {
		defer close(ch)

		if len(symbols) == 0 {
			return
		}

		args := make([]map[string]string, 0, len(symbols))
		for _, s := range symbols {
			args = append(args, map[string]string{
				"channel": "tickers",
				"instId":  s,
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			log.Printf("[WS] connect %s, %d symbols", c.url, len(symbols))
			conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
			if err != nil {
				log.Printf("[WS] dial error: %v", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			sub := map[string]any{
				"op":   "subscribe",
				"args": args,
			}
			if err := conn.WriteJSON(sub); err != nil {
				log.Printf("[WS] subscribe error: %v", err)
				_ = conn.Close()
				continue
			}

			// keepalive ping every 20s, some venues drop idle connections
			stopPing := make(chan struct{})
			go func() {
				t := time.NewTicker(20 * time.Second)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-stopPing:
						return
					case <-t.C:
						_ = conn.WriteJSON(map[string]string{"op": "ping"})
					}
				}
			}()

			c.readLoop(ctx, conn, ch)
			close(stopPing)
			_ = conn.Close()

			if ctx.Err() != nil {
				return
			}
		}
	}()

	return ch
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- models.Tick) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Printf("[WS] read error: %v", err)
			return
		}

		var frame struct {
			Arg struct {
				Channel string `json:"channel"`
				InstID  string `json:"instId"`
			} `json:"arg"`
			Data []struct {
				BidPx string `json:"bidPx"`
				AskPx string `json:"askPx"`
				Ts    string `json:"ts"`
			} `json:"data"`
		}
		if err := json.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if frame.Arg.Channel != "tickers" || len(frame.Data) == 0 {
			continue
		}

		for _, row := range frame.Data {
			bid, err1 := strconv.ParseFloat(row.BidPx, 64)
			ask, err2 := strconv.ParseFloat(row.AskPx, 64)
			if err1 != nil || err2 != nil || bid <= 0 {
				continue
			}
			at := time.Now()
			if ms, err := strconv.ParseInt(row.Ts, 10, 64); err == nil {
				at = time.UnixMilli(ms)
			}

			tick := models.Tick{
				Symbol: frame.Arg.InstID,
				Bid:    bid,
				Ask:    ask,
				At:     at,
			}

			select {
			case out <- tick:
			case <-ctx.Done():
				return
			}
		}
	}
}
