// Package dashgram is the Go SDK for the Dashgram analytics collector.
//
// A Client forwards Telegram updates to the collector's /track endpoint
// and referral links to /invited_by:
//
//	client := dashgram.New(projectID, accessKey)
//	defer client.Close()
//
//	ok, err := client.TrackEvent(ctx, update)
//
// Updates may be canonical maps, raw JSON, or objects from a supported bot
// library. Library objects are converted by framework adapters that
// register themselves when their package is imported:
//
//	import _ "github.com/flemzord/dashgram/modules/integration/telebot"
//
// Adapters also install observers into the library's dispatch pipeline so
// every update is tracked without affecting the bot's own handlers (see
// Client.Bind).
//
// Tracking failures are logged as warnings and reported as false unless the
// Strict call option is given. TrackEventAsync and InvitedByAsync return a
// Pending handle instead of blocking.
package dashgram
