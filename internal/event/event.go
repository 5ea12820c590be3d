package event

import (
	"github.com/pusher/pusher-http-go/v5"
	"golang.org/x/exp/slog"

	"go-gamehall/internal/lib/logger/sl"
)

// Channel and event names shared by the API and ws servers.
const (
	ChannelWheel = "wheel"

	EventRoundNew     = "round:new"
	EventRoundOutcome = "round:outcome"
	EventRoundSettled = "round:settled"
	EventBalanceSet   = "balance:set"
)

// UserChannel is the private channel carrying one user's balance events.
func UserChannel(userUUID string) string {
	return "user-" + userUUID
}

type Message struct {
	Channel string                 `json:"channel"`
	Event   string                 `json:"event"`
	Data    map[string]interface{} `json:"data"`
}

// Trigger is the one seam between game code and the transport, so tests
// and the ws server can substitute the pusher client.
type Trigger interface {
	TriggerEvent(message Message) error
}

type PusherEvent struct {
	log    *slog.Logger
	pusher *pusher.Client
}

func NewPusherEvent(log *slog.Logger, pusherClient *pusher.Client) *PusherEvent {
	return &PusherEvent{
		log:    log,
		pusher: pusherClient,
	}
}

func (p *PusherEvent) TriggerEvent(message Message) error {
	if err := p.pusher.Trigger(message.Channel, message.Event, message.Data); err != nil {
		p.log.Error("failed to trigger pusher event",
			sl.String("channel", message.Channel),
			sl.String("event", message.Event),
			sl.Err(err))

		return err
	}

	return nil
}
