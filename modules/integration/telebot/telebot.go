// Package telebot connects gopkg.in/telebot.v3 bots to the Dashgram tracker.
//
// Client.BindTelebot wraps the bot's poller so every update is tracked,
// including updates no handler matches; see the package example.
package telebot

import (
	"context"
	"errors"
	"fmt"

	"github.com/flemzord/dashgram/pkg/dashgram"
	tele "gopkg.in/telebot.v3"
)

func init() {
	dashgram.RegisterAdapter(Adapter{})
}

// Compile-time interface guard.
var _ dashgram.Adapter = Adapter{}

// Adapter implements dashgram.Adapter for telebot.v3.
type Adapter struct{}

// AdapterInfo implements dashgram.Adapter.
func (Adapter) AdapterInfo() dashgram.AdapterInfo {
	return dashgram.AdapterInfo{
		Framework: dashgram.FrameworkTelebot,
		Label:     "telebot",
		Packages:  []string{"gopkg.in/telebot.v3"},
	}
}

// Convert implements dashgram.Adapter.
func (Adapter) Convert(obj any, kind dashgram.HandlerKind) (dashgram.Event, error) {
	return Convert(obj, kind)
}

// Bind implements dashgram.Adapter. target must be a *tele.Bot that has not
// been started yet.
func (Adapter) Bind(t dashgram.Tracker, target any) error {
	b, ok := target.(*tele.Bot)
	if !ok || b == nil {
		return fmt.Errorf("%w: want *tele.Bot, got %T", dashgram.ErrBindTarget, target)
	}
	if b.Poller == nil {
		return errors.New("telebot: bot has no poller")
	}
	b.Poller = Poller(t, b.Poller)
	return nil
}

// Convert exports a telebot object. Updates are self describing; other
// objects (Message, Callback, ...) need a handler kind.
func Convert(obj any, kind dashgram.HandlerKind) (dashgram.Event, error) {
	switch obj.(type) {
	case tele.Update, *tele.Update:
		return dashgram.FromNative(obj, true, kind)
	default:
		return dashgram.FromNative(obj, false, kind)
	}
}

// Poller wraps p so that tracking fires for every polled update. Updates
// are never filtered out.
func Poller(t dashgram.Tracker, p tele.Poller) *tele.MiddlewarePoller {
	return tele.NewMiddlewarePoller(p, func(u *tele.Update) bool {
		dashgram.Observe(context.Background(), t, *u)
		return true
	})
}

// Middleware tracks the update of every handled context. Use it with
// Bot.Use or Group.Use when only handled updates should be tracked.
func Middleware(t dashgram.Tracker) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			dashgram.Observe(context.Background(), t, c.Update())
			return next(c)
		}
	}
}
