package publish

import (
	"context"
	"database/sql"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/Baldezari00/servicio-tecnico-guillermo/internal/models"
)

// Relay forwards a published payload to a second channel. Relay errors are
// logged and never fail a publish.
type Relay interface {
	Name() string
	Relay(ctx context.Context, text string) error
}

// Message is the outcome of a publish.
type Message struct {
	Text  string
	Link  string
	Files []string
}

// Publisher builds the hand-off message from the runtime settings in db.
type Publisher struct {
	DB *sql.DB
	// Relays receive every published payload in addition to any relay
	// configured through settings.
	Relays []Relay
}

// New returns a Publisher that reads its settings from db.
func New(db *sql.DB) *Publisher {
	return &Publisher{DB: db}
}

// Publish builds the payload and the WhatsApp link for the changed
// collections and hands the payload to the configured relays.
func (p *Publisher) Publish(ctx context.Context, services []models.Service, prices []models.Price, changes Changes) (Message, error) {
	text, err := Build(services, prices, changes, models.GetSetting(p.DB, "publish.edit_url_base"))
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		Text:  text,
		Link:  WhatsAppLink(models.GetWhatsAppPhone(p.DB), text),
		Files: changes.Files(),
	}

	for _, relay := range p.relays() {
		if err := relay.Relay(ctx, text); err != nil {
			log.Warnf("publish: relay %s: %v", relay.Name(), err)
			continue
		}
		log.Infof("publish: relayed %v via %s", msg.Files, relay.Name())
	}
	return msg, nil
}

func (p *Publisher) relays() []Relay {
	relays := append([]Relay(nil), p.Relays...)

	token := models.GetSetting(p.DB, "telegram.token")
	chat := models.GetSetting(p.DB, "telegram.chat_id")
	if token == "" || chat == "" {
		return relays
	}
	chatID, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		log.Warnf("publish: invalid telegram.chat_id %q: %v", chat, err)
		return relays
	}
	return append(relays, &TelegramRelay{Token: token, ChatID: chatID})
}
