package telebot_test

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/flemzord/dashgram/modules/integration/telebot"
	"github.com/flemzord/dashgram/pkg/dashgram"
	tele "gopkg.in/telebot.v3"
)

func Example() {
	b, err := tele.NewBot(tele.Settings{
		Token:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		log.Fatal(err)
	}

	client := dashgram.New(os.Getenv("DASHGRAM_PROJECT_ID"), os.Getenv("DASHGRAM_ACCESS_KEY"))
	defer func() { _ = client.Close() }()

	if err := client.BindTelebot(b); err != nil {
		log.Fatal(err)
	}
	b.Handle(tele.OnText, func(c tele.Context) error {
		return c.Send(c.Text())
	})
	b.Start()
}

func ExampleMiddleware() {
	b, err := tele.NewBot(tele.Settings{
		Token:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		log.Fatal(err)
	}

	client := dashgram.New(os.Getenv("DASHGRAM_PROJECT_ID"), os.Getenv("DASHGRAM_ACCESS_KEY"))
	defer func() { _ = client.Close() }()

	admin := b.Group()
	admin.Use(telebot.Middleware(client))
	admin.Handle("/stats", func(c tele.Context) error {
		return c.Send("ok")
	})
	b.Start()
}

func ExampleConvert() {
	e, err := telebot.Convert(&tele.Update{ID: 7}, "")
	if err != nil {
		log.Fatal(err)
	}
	id, _ := e.UpdateID()
	fmt.Println(id)

	e, err = telebot.Convert(&tele.Callback{ID: "42"}, dashgram.KindCallbackQuery)
	if err != nil {
		log.Fatal(err)
	}
	_, wrapped := e[string(dashgram.KindCallbackQuery)]
	fmt.Println(e[dashgram.UpdateIDKey], wrapped)
	// Output:
	// 7
	// -1 true
}
