// Package events carries hotel lifecycle notifications from the hotel CRUD
// side to the scoring service over a watermill router.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/adapters/observability"
	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

type Type string

const (
	HotelCreated Type = "created"
	HotelUpdated Type = "updated"
	HotelDeleted Type = "deleted"
)

// Topic is the watermill topic for t.
func (t Type) Topic() string { return "hotels." + string(t) }

func (t Type) Valid() bool {
	switch t {
	case HotelCreated, HotelUpdated, HotelDeleted:
		return true
	}
	return false
}

// HotelEvent is the message payload on every hotels.* topic.
type HotelEvent struct {
	HotelID int64 `json:"hotelId"`
}

// Handler reacts to hotel lifecycle changes.
type Handler interface {
	HandleHotelCreated(ctx context.Context, hotelID int64) error
	HandleHotelUpdated(ctx context.Context, hotelID int64) error
	HandleHotelDeleted(ctx context.Context, hotelID int64) error
}

type Config struct {
	Buffer          int64
	MaxRetries      int
	InitialInterval time.Duration
}

func DefaultConfig() Config {
	return Config{Buffer: 64, MaxRetries: 3, InitialInterval: 100 * time.Millisecond}
}

// Bus is an in-process pub/sub with one consumer handler per topic.
type Bus struct {
	pubsub *gochannel.GoChannel
	router *message.Router
}

func NewBus(cfg Config, h Handler) (*Bus, error) {
	logger := NewLogger(log.Logger)
	ps := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.Buffer}, logger)

	r, err := message.NewRouter(message.RouterConfig{CloseTimeout: 10 * time.Second}, logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}
	r.AddMiddleware(
		dropExhausted,
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: cfg.InitialInterval,
			Logger:          logger,
		}.Middleware,
	)

	handlers := map[Type]func(context.Context, int64) error{
		HotelCreated: h.HandleHotelCreated,
		HotelUpdated: h.HandleHotelUpdated,
		HotelDeleted: h.HandleHotelDeleted,
	}
	for typ, fn := range handlers {
		r.AddConsumerHandler("scoring_on_hotel_"+string(typ), typ.Topic(), ps, consume(typ, fn))
	}
	return &Bus{pubsub: ps, router: r}, nil
}

// Publish emits a lifecycle event for hotelID.
func (b *Bus) Publish(ctx context.Context, typ Type, hotelID int64) error {
	if !typ.Valid() {
		return domain.NewValidationError("type", "must be one of created updated deleted")
	}
	payload, err := json.Marshal(HotelEvent{HotelID: hotelID})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// the message outlives the publishing request, so no ctx is attached
	return b.pubsub.Publish(typ.Topic(), message.NewMessage(uuid.NewString(), payload))
}

// Run blocks until ctx is done or the router is closed.
func (b *Bus) Run(ctx context.Context) error { return b.router.Run(ctx) }

// Running is closed once every handler is subscribed.
func (b *Bus) Running() chan struct{} { return b.router.Running() }

func (b *Bus) Close() error {
	rerr := b.router.Close()
	perr := b.pubsub.Close()
	return errors.Join(rerr, perr)
}

func consume(typ Type, fn func(context.Context, int64) error) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var ev HotelEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			log.Error().Err(err).Str("message_uuid", msg.UUID).Msg("malformed hotel event, dropping")
			observability.ObserveHotelEvent(string(typ), err)
			return nil
		}

		err := fn(msg.Context(), ev.HotelID)
		observability.ObserveHotelEvent(string(typ), err)
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Int64("hotel_id", ev.HotelID).Str("type", string(typ)).Msg("hotel gone, event acked")
			return nil
		}
		if err != nil {
			return fmt.Errorf("hotel %s %d: %w", typ, ev.HotelID, err)
		}
		log.Debug().Int64("hotel_id", ev.HotelID).Str("type", string(typ)).Msg("hotel event handled")
		return nil
	}
}

// dropExhausted acks a message whose retries ran out so it is not redelivered forever.
func dropExhausted(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil {
			log.Error().Err(err).Str("message_uuid", msg.UUID).Msg("hotel event failed after retries, dropping")
			return nil, nil
		}
		return out, nil
	}
}
