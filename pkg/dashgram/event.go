package dashgram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// UpdateIDKey is the envelope key holding the update sequence id.
const UpdateIDKey = "update_id"

// SyntheticUpdateID marks an envelope built around a bare payload.
const SyntheticUpdateID = -1

// Event is a canonical Telegram update envelope: update_id plus exactly one
// payload key.
type Event map[string]any

// UpdateID returns the update_id value and whether it is set.
func (e Event) UpdateID() (any, bool) {
	v, ok := e[UpdateIDKey]
	return v, ok && v != nil
}

// HandlerKind names the update field a bare payload belongs to.
type HandlerKind string

// Handler kinds defined by the Bot API.
const (
	KindMessage                 HandlerKind = "message"
	KindEditedMessage           HandlerKind = "edited_message"
	KindChannelPost             HandlerKind = "channel_post"
	KindEditedChannelPost       HandlerKind = "edited_channel_post"
	KindBusinessConnection      HandlerKind = "business_connection"
	KindBusinessMessage         HandlerKind = "business_message"
	KindEditedBusinessMessage   HandlerKind = "edited_business_message"
	KindDeletedBusinessMessages HandlerKind = "deleted_business_messages"
	KindMessageReaction         HandlerKind = "message_reaction"
	KindMessageReactionCount    HandlerKind = "message_reaction_count"
	KindInlineQuery             HandlerKind = "inline_query"
	KindChosenInlineResult      HandlerKind = "chosen_inline_result"
	KindCallbackQuery           HandlerKind = "callback_query"
	KindShippingQuery           HandlerKind = "shipping_query"
	KindPreCheckoutQuery        HandlerKind = "pre_checkout_query"
	KindPurchasedPaidMedia      HandlerKind = "purchased_paid_media"
	KindPoll                    HandlerKind = "poll"
	KindPollAnswer              HandlerKind = "poll_answer"
	KindMyChatMember            HandlerKind = "my_chat_member"
	KindChatMember              HandlerKind = "chat_member"
	KindChatJoinRequest         HandlerKind = "chat_join_request"
	KindChatBoost               HandlerKind = "chat_boost"
	KindRemovedChatBoost        HandlerKind = "removed_chat_boost"
)

var handlerKinds = []HandlerKind{
	KindMessage, KindEditedMessage, KindChannelPost, KindEditedChannelPost,
	KindBusinessConnection, KindBusinessMessage, KindEditedBusinessMessage,
	KindDeletedBusinessMessages, KindMessageReaction, KindMessageReactionCount,
	KindInlineQuery, KindChosenInlineResult, KindCallbackQuery, KindShippingQuery,
	KindPreCheckoutQuery, KindPurchasedPaidMedia, KindPoll, KindPollAnswer,
	KindMyChatMember, KindChatMember, KindChatJoinRequest, KindChatBoost,
	KindRemovedChatBoost,
}

// HandlerKinds returns every known handler kind in Bot API order.
func HandlerKinds() []HandlerKind {
	out := make([]HandlerKind, len(handlerKinds))
	copy(out, handlerKinds)
	return out
}

// ParseHandlerKind validates s against the known handler kinds.
func ParseHandlerKind(s string) (HandlerKind, error) {
	for _, k := range handlerKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("dashgram: unknown handler kind %q", s)
}

// Wrap returns e unchanged when it already carries an update_id. Otherwise
// it builds {"update_id": -1, kind: e}, failing with ErrAmbiguousEnvelope
// when kind is empty.
func Wrap(e Event, kind HandlerKind) (Event, error) {
	if _, ok := e.UpdateID(); ok {
		return e, nil
	}
	if kind == "" {
		return nil, ErrAmbiguousEnvelope
	}
	return Event{UpdateIDKey: SyntheticUpdateID, string(kind): e}, nil
}

// Normalize converts event into a canonical Event.
//
// Mappings (any map with string keys, or a JSON object as json.RawMessage
// or []byte) go through Wrap. Any other value is handed to the adapter that
// recognizes its package; an unrecognized value yields an empty Event and
// no error.
func Normalize(event any, kind HandlerKind) (Event, error) {
	e, ok, err := mapping(event)
	if err != nil {
		return nil, err
	}
	if ok {
		return Wrap(e, kind)
	}

	conv := Resolve(event)
	if conv == nil {
		return Event{}, nil
	}
	return conv(event, kind)
}

// NormalizeFrom converts event with the adapter registered for fw, skipping
// package recognition. Mappings still go through Wrap.
func NormalizeFrom(fw Framework, event any, kind HandlerKind) (Event, error) {
	a, ok := GetAdapter(fw)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterUnavailable, fw)
	}
	e, ok, err := mapping(event)
	if err != nil {
		return nil, err
	}
	if ok {
		return Wrap(e, kind)
	}
	return a.Convert(event, kind)
}

// mapping returns event as an Event when it is a mapping. Named map types
// and maps with non-interface values are copied entry by entry.
func mapping(event any) (Event, bool, error) {
	switch v := event.(type) {
	case nil:
		return nil, false, nil
	case Event:
		return v, true, nil
	case map[string]any:
		return Event(v), true, nil
	case json.RawMessage:
		e, err := decodeEvent(v)
		return e, true, err
	case []byte:
		e, err := decodeEvent(v)
		return e, true, err
	}

	rv := reflect.ValueOf(event)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false, nil
	}
	e := make(Event, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, val := iter.Key().String(), iter.Value()
		switch val.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			if val.IsNil() {
				e[key] = nil
				continue
			}
		}
		e[key] = val.Interface()
	}
	return e, true, nil
}

// ToEvent serializes v with encoding/json and decodes the result as an
// Event. Adapters use it to export native framework objects.
func ToEvent(v any) (Event, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("dashgram: marshal %T: %w", v, err)
	}
	return decodeEvent(raw)
}

// FromNative builds a canonical Event from a framework object. A full
// update is exported as-is; any other object is wrapped under kind, which
// is then mandatory.
func FromNative(obj any, isUpdate bool, kind HandlerKind) (Event, error) {
	if !isUpdate && kind == "" {
		return nil, fmt.Errorf("%w: %T", ErrHandlerKindRequired, obj)
	}
	e, err := ToEvent(obj)
	if err != nil {
		return nil, err
	}
	if isUpdate {
		return e, nil
	}
	return Event{UpdateIDKey: SyntheticUpdateID, string(kind): e}, nil
}

func decodeEvent(raw []byte) (Event, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var e Event
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("dashgram: decode event: %w", err)
	}
	if e == nil {
		e = Event{}
	}
	return e, nil
}
