package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// withRecovery keeps the update loop alive when a command handler panics.
func (b *Bot) withRecovery(update tgbotapi.Update, handler func()) {
	defer func() {
		if r := recover(); r != nil {
			if b.metrics != nil {
				b.metrics.ErrorsTotal.Inc()
			}
			b.logger.Error().
				Interface("panic", r).
				Int("update_id", update.UpdateID).
				Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}
