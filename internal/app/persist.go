package app

import (
	"context"

	"github.com/matheus3301/bcast/internal/bus"
	"github.com/matheus3301/bcast/internal/store"
	"go.uber.org/zap"
)

const (
	settingTemplateLink   = "template_link"
	settingTemplateActive = "template_active"
)

// templateSettings maps templates.changed payload keys to the setting
// they are saved under.
var templateSettings = map[string]string{
	"link":   settingTemplateLink,
	"active": settingTemplateActive,
}

// settingsPersister saves the template link and the selected template
// whenever they change so both survive a restart.
type settingsPersister struct {
	db     *store.DB
	logger *zap.Logger
}

func newSettingsPersister(db *store.DB, logger *zap.Logger) *settingsPersister {
	return &settingsPersister{db: db, logger: logger}
}

// Run consumes templates.* events until ctx is done.
func (p *settingsPersister) Run(ctx context.Context, b *bus.Bus) {
	ch, unsub := b.Subscribe("templates.", 16)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			p.handle(ctx, evt)
		}
	}
}

func (p *settingsPersister) handle(ctx context.Context, evt bus.Event) {
	payload, ok := evt.Payload.(map[string]string)
	if !ok {
		return
	}
	for field, key := range templateSettings {
		value, ok := payload[field]
		if !ok {
			continue
		}
		if err := p.db.SetSetting(ctx, key, value); err != nil {
			p.logger.Warn("persist setting", zap.String("key", key), zap.Error(err))
			continue
		}
		p.logger.Info("setting saved", zap.String("key", key), zap.String("value", value))
	}
}
