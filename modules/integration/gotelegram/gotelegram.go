// Package gotelegram connects github.com/go-telegram/bot bots to the
// Dashgram tracker through a bot middleware.
//
// The library only accepts middlewares when the bot is created, so the
// observer is supplied as an option, through Client.BindGoTelegram or
// Option; see the package example.
package gotelegram

import (
	"context"
	"fmt"

	"github.com/flemzord/dashgram/pkg/dashgram"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

func init() {
	dashgram.RegisterAdapter(Adapter{})
}

// Compile-time interface guard.
var _ dashgram.Adapter = Adapter{}

// Adapter implements dashgram.Adapter for go-telegram/bot.
type Adapter struct{}

// AdapterInfo implements dashgram.Adapter.
func (Adapter) AdapterInfo() dashgram.AdapterInfo {
	return dashgram.AdapterInfo{
		Framework: dashgram.FrameworkGoTelegram,
		Label:     "go-telegram",
		Packages:  []string{"github.com/go-telegram/bot"},
	}
}

// Convert implements dashgram.Adapter.
func (Adapter) Convert(obj any, kind dashgram.HandlerKind) (dashgram.Event, error) {
	return Convert(obj, kind)
}

// Bind implements dashgram.Adapter. target must be a *[]bot.Option; the
// tracking middleware option is appended to it.
func (Adapter) Bind(t dashgram.Tracker, target any) error {
	opts, ok := target.(*[]bot.Option)
	if !ok || opts == nil {
		return fmt.Errorf("%w: want *[]bot.Option, got %T", dashgram.ErrBindTarget, target)
	}
	*opts = append(*opts, Option(t))
	return nil
}

// Convert exports a go-telegram object. Updates are self describing; other
// models (Message, CallbackQuery, ...) need a handler kind.
func Convert(obj any, kind dashgram.HandlerKind) (dashgram.Event, error) {
	switch obj.(type) {
	case models.Update, *models.Update:
		return dashgram.FromNative(obj, true, kind)
	default:
		return dashgram.FromNative(obj, false, kind)
	}
}

// Option returns a bot option installing Middleware.
func Option(t dashgram.Tracker) bot.Option {
	return bot.WithMiddlewares(Middleware(t))
}

// Middleware fires tracking for every update and always calls next.
func Middleware(t dashgram.Tracker) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			dashgram.Observe(ctx, t, update)
			next(ctx, b, update)
		}
	}
}
