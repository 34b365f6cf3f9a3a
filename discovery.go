package main

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/grandcat/zeroconf"
)

const hueService = "_hue._tcp"

// Bridge is a Hue bridge found on the local network.
type Bridge struct {
	ID    string
	Model string
	Name  string
	IP    net.IP
	Port  int
}

func (b Bridge) String() string {
	return fmt.Sprintf("%s (%s) at %s", b.Name, b.ID, b.IP)
}

// DiscoverBridges browses mDNS until ctx is done and returns the distinct
// bridges that answered.
func DiscoverBridges(ctx context.Context) ([]Bridge, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("creating mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	collected := make(chan []Bridge, 1)
	go func() {
		var bridges []Bridge
		seen := make(map[string]bool)
		for entry := range entries {
			b := bridgeFromEntry(entry)
			if b.ID != "" {
				if seen[b.ID] {
					continue
				}
				seen[b.ID] = true
			}
			bridges = append(bridges, b)
		}
		collected <- bridges
	}()

	// Browse closes entries once ctx is done, including when its first
	// query fails.
	if err := resolver.Browse(ctx, hueService, "local.", entries); err != nil {
		return nil, fmt.Errorf("browsing for Hue bridges: %w", err)
	}
	<-ctx.Done()
	return <-collected, nil
}

// FindBridge picks the bridge with the given ID, or the first one when id
// is empty.
func FindBridge(bridges []Bridge, id string) (Bridge, error) {
	if len(bridges) == 0 {
		return Bridge{}, fmt.Errorf("no Hue bridges found on the network")
	}
	if id == "" {
		return bridges[0], nil
	}
	for _, b := range bridges {
		if strings.EqualFold(b.ID, id) {
			return b, nil
		}
	}
	return Bridge{}, fmt.Errorf("Hue bridge %s not found", id)
}

func bridgeFromEntry(entry *zeroconf.ServiceEntry) Bridge {
	b := Bridge{Name: entry.Instance, Port: entry.Port}

	switch {
	case len(entry.AddrIPv4) > 0:
		b.IP = entry.AddrIPv4[0]
	case len(entry.AddrIPv6) > 0:
		b.IP = entry.AddrIPv6[0]
	}

	for _, txt := range entry.Text {
		key, value, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		switch key {
		case "bridgeid":
			b.ID = value
		case "modelid":
			b.Model = value
		}
	}
	return b
}
