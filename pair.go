package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

// pairHue walks the user through pairing a bridge and stores the keys.
func pairHue(ctx context.Context, in io.Reader, out io.Writer, bridgeID string, store hueStore, discover func(context.Context) ([]Bridge, error)) error {
	fmt.Fprintln(out, titleStyle.Render("Scanning for Hue bridges..."))

	dctx, cancel := context.WithTimeout(ctx, hueDiscoverTimeout)
	bridges, err := discover(dctx)
	cancel()
	if err != nil {
		return err
	}
	bridge, err := FindBridge(bridges, bridgeID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  Bridge: %s\n\n", bridge)

	lines := bufio.NewScanner(in)
	for {
		fmt.Fprintln(out, titleStyle.Render("Press the link button on your Hue bridge, then press Enter."))
		if !lines.Scan() {
			if err := lines.Err(); err != nil {
				return err
			}
			return ErrAborted
		}

		username, clientkey, err := PairBridge(bridge.IP)
		if errors.Is(err, ErrLinkButtonNotPressed) {
			fmt.Fprintln(out, errStyle.Render("  Link button not pressed."))
			continue
		}
		if err != nil {
			return fmt.Errorf("pairing failed: %w", err)
		}

		if err := store.Save(bridge.ID, HueCredentials{Username: username, Clientkey: clientkey}); err != nil {
			return fmt.Errorf("saving credentials: %w", err)
		}
		fmt.Fprintf(out, "\n  Paired with %s\n", bridge.Name)
		return nil
	}
}
