package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/storefront/internal/email"
	"github.com/example/storefront/internal/events"
)

// Handler turns OrderPlaced events into confirmation emails.
type Handler struct {
	emailService *email.Service
}

func NewHandler(emailSvc *email.Service) *Handler {
	return &Handler{emailService: emailSvc}
}

// HandleEvent processes one event from the stream. Events other than
// OrderPlaced are ignored.
func (h *Handler) HandleEvent(ctx context.Context, event events.Event) error {
	if event.Type != events.TypeOrderPlaced {
		return nil
	}

	var placed events.OrderPlaced
	if err := json.Unmarshal(event.Data, &placed); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Sending confirmation for order %s", placed.OrderNumber)
	if err := h.emailService.SendOrderConfirmation(placed.CustomerEmail, placed); err != nil {
		log.Printf("[Notifier] Failed to send confirmation for %s: %v", placed.OrderNumber, err)
		return err
	}
	return nil
}
