package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const hueStoreFile = "hue.toml"

// ErrNoCredentials is returned when a bridge has not been paired yet.
var ErrNoCredentials = errors.New("bridge not paired; run pickme -pair-hue")

// HueCredentials are the keys issued by a bridge during pairing.
type HueCredentials struct {
	Username  string `toml:"username"`
	Clientkey string `toml:"clientkey"`
}

// hueStore keeps credentials per bridge ID in a TOML file.
type hueStore struct {
	path string
}

func defaultHueStore() (hueStore, error) {
	dir, err := userConfigDir()
	if err != nil {
		return hueStore{}, err
	}
	return hueStore{path: filepath.Join(dir, hueStoreFile)}, nil
}

func (s hueStore) readAll() (map[string]HueCredentials, error) {
	all := make(map[string]HueCredentials)
	if _, err := toml.DecodeFile(s.path, &all); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return all, nil
		}
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return all, nil
}

// Load returns the credentials for bridgeID, or ErrNoCredentials.
func (s hueStore) Load(bridgeID string) (HueCredentials, error) {
	all, err := s.readAll()
	if err != nil {
		return HueCredentials{}, err
	}
	creds, ok := all[bridgeID]
	if !ok || creds.Username == "" {
		return HueCredentials{}, ErrNoCredentials
	}
	return creds, nil
}

// Save stores creds for bridgeID, keeping other bridges. The file is
// written with mode 0600 inside a 0700 directory. An unreadable store is
// left untouched.
func (s hueStore) Save(bridgeID string, creds HueCredentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}
	all, err := s.readAll()
	if err != nil {
		return err
	}
	all[bridgeID] = creds
	return s.write(all)
}

// Delete forgets bridgeID.
func (s hueStore) Delete(bridgeID string) error {
	all, err := s.readAll()
	if err != nil {
		return err
	}
	delete(all, bridgeID)
	return s.write(all)
}

func (s hueStore) write(all map[string]HueCredentials) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(all); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return f.Close()
}
