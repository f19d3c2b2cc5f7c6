package services

import (
	"github.com/goccy/go-json"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/logging"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
	"github.com/moizayub1255/Tezaabi-Tottay/pkg/rabbitmq"
)

// EventPublisher delivers a message to a broker exchange. *rabbitmq.Client implements it.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// publishEvent sends evt when a publisher is configured. Delivery is best-effort:
// the mutation it describes has already been committed, so failures are only logged.
func publishEvent(pub EventPublisher, evt models.AccountEvent) {
	if pub == nil {
		return
	}
	body, err := json.Marshal(evt)
	if err != nil {
		logging.Warn().Err(err).Str("event", string(evt.Type)).Msg("failed to encode account event")
		return
	}
	if err := pub.Publish(rabbitmq.AccountExchange, string(evt.Type), body); err != nil {
		logging.Warn().Err(err).
			Str("event", string(evt.Type)).
			Str("user_id", evt.UserID).
			Msg("failed to publish account event")
	}
}
