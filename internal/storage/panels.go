package storage

import (
	"fmt"
	"time"
)

type PanelMessage struct {
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) Panels() map[string]PanelMessage {
	panels := make(map[string]PanelMessage)
	if !s.view(s.docPath(panelsFile), &panels) {
		return make(map[string]PanelMessage)
	}
	return panels
}

func (s *Store) Panel(guildID string) (PanelMessage, bool) {
	panel, ok := s.Panels()[guildID]
	return panel, ok
}

// SavePanel records the guild's ticket panel, replacing any previous one.
func (s *Store) SavePanel(guildID string, panel PanelMessage) error {
	path := s.docPath(panelsFile)
	err := s.withLock(path, func() error {
		panels := make(map[string]PanelMessage)
		ok, err := s.readForUpdate(path, &panels)
		if err != nil {
			return err
		}
		if !ok {
			panels = make(map[string]PanelMessage)
		}
		panels[guildID] = panel
		return s.writeDoc(path, panels)
	})
	if err != nil {
		return fmt.Errorf("save panel: %w", err)
	}
	return nil
}

func (s *Store) DeletePanel(guildID string) error {
	path := s.docPath(panelsFile)
	err := s.withLock(path, func() error {
		panels := make(map[string]PanelMessage)
		ok, err := s.readForUpdate(path, &panels)
		if err != nil {
			return err
		}
		if !ok {
			panels = make(map[string]PanelMessage)
		}
		if _, ok := panels[guildID]; !ok {
			return nil
		}
		delete(panels, guildID)
		return s.writeDoc(path, panels)
	})
	if err != nil {
		return fmt.Errorf("delete panel: %w", err)
	}
	return nil
}
