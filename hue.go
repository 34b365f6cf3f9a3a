package main

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Bridges use self-signed certificates.
var hueClient = &http.Client{
	Timeout: 10 * time.Second,
	Transport: &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	},
}

// ErrLinkButtonNotPressed is returned by PairBridge until the link button
// on the bridge has been pressed.
var ErrLinkButtonNotPressed = errors.New("link button not pressed")

// ErrUnauthorized is returned when the bridge rejects the stored key.
var ErrUnauthorized = errors.New("unauthorized")

// hueErrLinkButton is the v1 API error type for an unpressed link button.
const hueErrLinkButton = 101

// PairBridge registers pickme with the bridge and returns the application
// key and the streaming client key.
func PairBridge(ip net.IP) (username, clientkey string, err error) {
	body := strings.NewReader(`{"devicetype":"pickme#cli","generateclientkey":true}`)
	resp, err := hueClient.Post(bridgeURL(ip, "/api"), "application/json", body)
	if err != nil {
		return "", "", fmt.Errorf("pairing request: %w", err)
	}
	defer resp.Body.Close()

	var result []struct {
		Success *struct {
			Username  string `json:"username"`
			Clientkey string `json:"clientkey"`
		} `json:"success"`
		Error *struct {
			Type        int    `json:"type"`
			Description string `json:"description"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", fmt.Errorf("decoding pair response: %w", err)
	}
	if len(result) == 0 {
		return "", "", errors.New("empty pair response")
	}

	switch r := result[0]; {
	case r.Error != nil && r.Error.Type == hueErrLinkButton:
		return "", "", ErrLinkButtonNotPressed
	case r.Error != nil:
		return "", "", fmt.Errorf("bridge error %d: %s", r.Error.Type, r.Error.Description)
	case r.Success == nil:
		return "", "", errors.New("unexpected pair response: no success or error")
	default:
		return r.Success.Username, r.Success.Clientkey, nil
	}
}

// EntertainmentArea is a Hue entertainment configuration.
type EntertainmentArea struct {
	ID         string
	Name       string
	ChannelIDs []uint8
}

func (a EntertainmentArea) String() string {
	return fmt.Sprintf("%s (%d channels)", a.Name, len(a.ChannelIDs))
}

// FetchEntertainmentAreas lists the entertainment configurations on the
// bridge.
func FetchEntertainmentAreas(ip net.IP, username string) ([]EntertainmentArea, error) {
	req, err := newHueRequest(http.MethodGet, bridgeURL(ip, "/clip/v2/resource/entertainment_configuration"), nil, username)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := hueClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching entertainment areas: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	return decodeEntertainmentAreas(resp.Body)
}

func decodeEntertainmentAreas(r io.Reader) ([]EntertainmentArea, error) {
	var result struct {
		Data []struct {
			ID       string `json:"id"`
			Metadata struct {
				Name string `json:"name"`
			} `json:"metadata"`
			Channels []struct {
				ChannelID uint8 `json:"channel_id"`
			} `json:"channels"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding entertainment response: %w", err)
	}

	areas := make([]EntertainmentArea, len(result.Data))
	for i, d := range result.Data {
		ids := make([]uint8, len(d.Channels))
		for j, ch := range d.Channels {
			ids[j] = ch.ChannelID
		}
		areas[i] = EntertainmentArea{ID: d.ID, Name: d.Metadata.Name, ChannelIDs: ids}
	}
	return areas, nil
}

// FindArea picks the area whose ID or name matches key, or the first one
// when key is empty.
func FindArea(areas []EntertainmentArea, key string) (EntertainmentArea, error) {
	if len(areas) == 0 {
		return EntertainmentArea{}, errors.New("no entertainment areas configured on this bridge")
	}
	if key == "" {
		return areas[0], nil
	}
	for _, a := range areas {
		if a.ID == key || strings.EqualFold(a.Name, key) {
			return a, nil
		}
	}
	return EntertainmentArea{}, fmt.Errorf("entertainment area %q not found", key)
}

// SetAreaStreaming starts or stops entertainment mode for an area.
func SetAreaStreaming(ip net.IP, username, areaID string, active bool) error {
	action := "stop"
	if active {
		action = "start"
	}
	url := bridgeURL(ip, "/clip/v2/resource/entertainment_configuration/"+areaID)
	req, err := newHueRequest(http.MethodPut, url, strings.NewReader(`{"action":"`+action+`"}`), username)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", action, err)
	}

	resp, err := hueClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s area: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s area: HTTP %d", action, resp.StatusCode)
	}
	return nil
}

func bridgeURL(ip net.IP, path string) string {
	host := ip.String()
	if ip.To4() == nil {
		host = "[" + host + "]"
	}
	return "https://" + host + path
}

func newHueRequest(method, url string, body io.Reader, username string) (*http.Request, error) {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("hue-application-key", username)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}
