package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"shortpipe/internal/logging"
	"shortpipe/internal/queue"
)

// AddChannel creates or updates a tracked channel.
func (d *Daemon) AddChannel(ctx context.Context, ch *queue.Channel) error {
	if ch == nil {
		return errors.New("channel is nil")
	}
	ch.ID = strings.TrimSpace(ch.ID)
	if ch.ID == "" {
		return errors.New("channel id is required")
	}
	if strings.TrimSpace(ch.Name) == "" {
		ch.Name = ch.ID
	}
	if ch.PriorityTier < 1 {
		ch.PriorityTier = 1
	}
	if err := d.store.UpsertChannel(ctx, ch); err != nil {
		return err
	}
	d.logger.Info("channel tracked",
		logging.String(logging.FieldChannel, ch.ID),
		logging.Int("priority_tier", ch.PriorityTier),
	)
	return nil
}

// ListChannels returns all tracked channels.
func (d *Daemon) ListChannels(ctx context.Context) ([]*queue.Channel, error) {
	return d.store.ListChannels(ctx)
}

// TrackedVideoCount returns how many videos a channel owns.
func (d *Daemon) TrackedVideoCount(ctx context.Context, channelID string) (int, error) {
	return d.store.TrackedVideoCount(ctx, channelID)
}

// SetChannelEnabled toggles discovery for a channel.
func (d *Daemon) SetChannelEnabled(ctx context.Context, id string, enabled bool) error {
	ok, err := d.store.SetChannelEnabled(ctx, id, enabled)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("channel %q is not tracked", id)
	}
	return nil
}

// channelImport is the on-disk shape of a channel roster file.
type channelImport struct {
	Channels []struct {
		ID               string `yaml:"id"`
		Name             string `yaml:"name"`
		PriorityTier     int    `yaml:"priority_tier"`
		MaxTrackedVideos int    `yaml:"max_tracked_videos"`
		Enabled          *bool  `yaml:"enabled"`
	} `yaml:"channels"`
}

// ImportChannels upserts channels from a YAML roster file and returns
// how many entries were applied. Entries missing an id abort the import
// before any write.
func (d *Daemon) ImportChannels(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read roster: %w", err)
	}

	var roster channelImport
	if err := yaml.Unmarshal(raw, &roster); err != nil {
		return 0, fmt.Errorf("parse roster: %w", err)
	}
	if len(roster.Channels) == 0 {
		return 0, errors.New("roster contains no channels")
	}
	for i, entry := range roster.Channels {
		if strings.TrimSpace(entry.ID) == "" {
			return 0, fmt.Errorf("roster entry %d has no id", i+1)
		}
	}

	imported := 0
	for _, entry := range roster.Channels {
		enabled := true
		if entry.Enabled != nil {
			enabled = *entry.Enabled
		}
		ch := &queue.Channel{
			ID:               strings.TrimSpace(entry.ID),
			Name:             strings.TrimSpace(entry.Name),
			PriorityTier:     entry.PriorityTier,
			MaxTrackedVideos: entry.MaxTrackedVideos,
			Enabled:          enabled,
		}
		if err := d.AddChannel(ctx, ch); err != nil {
			return imported, fmt.Errorf("import channel %q: %w", ch.ID, err)
		}
		imported++
	}

	d.logger.Info("channel roster imported",
		logging.String("path", path),
		logging.Int("count", imported),
	)
	return imported, nil
}
