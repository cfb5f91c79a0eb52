package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/event"
)

type eventConfig struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Date         string `json:"date"`
	Location     string `json:"location"`
	Password     string `json:"password"`
	PasswordHash string `json:"password_hash"`
	Description  string `json:"description"`
}

// EventDirectory serves events from a static events.json list.
type EventDirectory struct {
	items []event.Event
}

func NewEventDirectory(items []event.Event) *EventDirectory {
	return &EventDirectory{items: append([]event.Event(nil), items...)}
}

// LoadEvents reads the events file. A missing file yields no events.
func LoadEvents(path string) (*EventDirectory, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewEventDirectory(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read events file: %w", err)
	}

	var rows []eventConfig
	if err := sonic.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode events file: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	items := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row.ID)
		if id == "" {
			return nil, fmt.Errorf("event %q has no id", row.Name)
		}
		if _, exists := seen[id]; exists {
			return nil, fmt.Errorf("duplicate event id %q", id)
		}
		seen[id] = struct{}{}
		items = append(items, event.Event{
			ID:           id,
			Name:         row.Name,
			Date:         row.Date,
			Location:     row.Location,
			Password:     row.Password,
			PasswordHash: row.PasswordHash,
			Description:  row.Description,
		})
	}
	return NewEventDirectory(items), nil
}

func (d *EventDirectory) GetByID(_ context.Context, eventID string) (event.Event, bool, error) {
	for _, item := range d.items {
		if item.ID == eventID {
			return item, true, nil
		}
	}
	return event.Event{}, false, nil
}

// FindByPassword returns the first event the password opens, in file order.
func (d *EventDirectory) FindByPassword(_ context.Context, password string) (event.Event, bool, error) {
	for _, item := range d.items {
		if item.CheckPassword(password) {
			return item, true, nil
		}
	}
	return event.Event{}, false, nil
}

func (d *EventDirectory) List() []event.Event {
	return append([]event.Event(nil), d.items...)
}
