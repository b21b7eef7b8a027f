// Package telegrambotapi connects github.com/go-telegram-bot-api/telegram-bot-api/v5
// bots to the Dashgram tracker.
//
// Importing the package registers the adapter. Tracking is installed as a
// stage on the bot's update channel with Client.BindTelegramBotAPI or Tee;
// see the package example.
package telegrambotapi

import (
	"context"
	"fmt"

	"github.com/flemzord/dashgram/pkg/dashgram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func init() {
	dashgram.RegisterAdapter(Adapter{})
}

// Compile-time interface guard.
var _ dashgram.Adapter = Adapter{}

// Adapter implements dashgram.Adapter for telegram-bot-api/v5.
type Adapter struct{}

// AdapterInfo implements dashgram.Adapter.
func (Adapter) AdapterInfo() dashgram.AdapterInfo {
	return dashgram.AdapterInfo{
		Framework: dashgram.FrameworkTelegramBotAPI,
		Label:     "telegram-bot-api",
		Packages:  []string{"github.com/go-telegram-bot-api/telegram-bot-api/v5"},
	}
}

// Convert implements dashgram.Adapter.
func (Adapter) Convert(obj any, kind dashgram.HandlerKind) (dashgram.Event, error) {
	return Convert(obj, kind)
}

// Bind implements dashgram.Adapter. target must be a *tgbotapi.UpdatesChannel;
// it is replaced by a channel that tracks every update before yielding it.
func (Adapter) Bind(t dashgram.Tracker, target any) error {
	updates, ok := target.(*tgbotapi.UpdatesChannel)
	if !ok || updates == nil {
		return fmt.Errorf("%w: want *tgbotapi.UpdatesChannel, got %T", dashgram.ErrBindTarget, target)
	}
	*updates = Tee(t, *updates)
	return nil
}

// Convert exports a telegram-bot-api object. Updates are self describing;
// other objects (Message, CallbackQuery, ...) need a handler kind.
func Convert(obj any, kind dashgram.HandlerKind) (dashgram.Event, error) {
	switch obj.(type) {
	case tgbotapi.Update, *tgbotapi.Update:
		return dashgram.FromNative(obj, true, kind)
	default:
		return dashgram.FromNative(obj, false, kind)
	}
}

// Tee returns a channel yielding every update received on in, in order,
// after tracking has been fired for it. The returned channel is closed when
// in is closed (e.g. by BotAPI.StopReceivingUpdates).
func Tee(t dashgram.Tracker, in tgbotapi.UpdatesChannel) tgbotapi.UpdatesChannel {
	out := make(chan tgbotapi.Update, cap(in))
	go func() {
		defer close(out)
		for update := range in {
			dashgram.Observe(context.Background(), t, update)
			out <- update
		}
	}()
	return out
}
