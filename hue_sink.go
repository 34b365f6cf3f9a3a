package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pion/logging"
)

const (
	hueDiscoverTimeout = 3 * time.Second
	hueFrameInterval   = 40 * time.Millisecond // bridges expect 25-50 packets/s
)

// hueSink flashes the committed color on a Hue entertainment area. The
// lights return to their previous state when streaming stops.
type hueSink struct {
	cfg   HueConfig
	store hueStore
	lf    logging.LoggerFactory
	log   logging.LeveledLogger

	discover func(ctx context.Context) ([]Bridge, error)
}

func newHueSink(cfg HueConfig, store hueStore, lf logging.LoggerFactory) *hueSink {
	return &hueSink{
		cfg:      cfg,
		store:    store,
		lf:       lf,
		log:      lf.NewLogger("hue"),
		discover: DiscoverBridges,
	}
}

func (s *hueSink) Name() string { return "hue" }

// forget drops credentials the bridge no longer accepts.
func (s *hueSink) forget(b Bridge) {
	if err := s.store.Delete(b.ID); err != nil {
		s.log.Warnf("forgetting key for %s: %v", b, err)
	}
}

func (s *hueSink) Commit(ctx context.Context, c RGB) error {
	dctx, cancel := context.WithTimeout(ctx, hueDiscoverTimeout)
	bridges, err := s.discover(dctx)
	cancel()
	if err != nil {
		return err
	}
	bridge, err := FindBridge(bridges, s.cfg.Bridge)
	if err != nil {
		return err
	}

	creds, err := s.store.Load(bridge.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", bridge, err)
	}

	areas, err := FetchEntertainmentAreas(bridge.IP, creds.Username)
	if errors.Is(err, ErrUnauthorized) {
		s.forget(bridge)
		return fmt.Errorf("%s rejected the stored key: %w", bridge, ErrNoCredentials)
	}
	if err != nil {
		return err
	}
	area, err := FindArea(areas, s.cfg.Area)
	if err != nil {
		return err
	}

	if err := SetAreaStreaming(bridge.IP, creds.Username, area.ID, true); err != nil {
		return err
	}
	defer func() {
		if err := SetAreaStreaming(bridge.IP, creds.Username, area.ID, false); err != nil {
			s.log.Warnf("stopping %s: %v", area.Name, err)
		}
	}()

	streamer, err := dialHueStream(ctx, bridge.IP, creds.Username, creds.Clientkey, area, s.lf)
	if err != nil {
		return err
	}
	defer streamer.Close()

	s.log.Infof("showing %v on %s for %v", c, area, s.cfg.Duration)
	return flash(ctx, streamer, c, s.cfg.Duration, hueFrameInterval)
}

// flash sends c every interval until d has elapsed.
func flash(ctx context.Context, s interface{ Send(RGB) error }, c RGB, d, interval time.Duration) error {
	if err := s.Send(c); err != nil {
		return err
	}
	deadline := time.NewTimer(d)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return nil
		case <-ticker.C:
			if err := s.Send(c); err != nil {
				return err
			}
		}
	}
}
