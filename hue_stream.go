package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"time"

	"github.com/pion/dtls/v2"
	"github.com/pion/logging"
)

const (
	hueStreamPort    = 2100
	hueHandshakeWait = 5 * time.Second

	hueHeaderSize  = 52
	hueChannelSize = 7
	hueAreaIDSize  = 36
)

// hueStreamer sends HueStream v2 packets over DTLS-PSK.
type hueStreamer struct {
	conn       net.Conn
	areaID     string
	channelIDs []uint8
	seq        uint8
}

func dialHueStream(ctx context.Context, ip net.IP, username, clientkey string, area EntertainmentArea, lf logging.LoggerFactory) (*hueStreamer, error) {
	psk, err := hex.DecodeString(clientkey)
	if err != nil {
		return nil, fmt.Errorf("decoding clientkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, hueHandshakeWait)
	defer cancel()

	conn, err := dtls.DialWithContext(ctx, "udp", &net.UDPAddr{IP: ip, Port: hueStreamPort}, &dtls.Config{
		PSK: func([]byte) ([]byte, error) {
			return psk, nil
		},
		PSKIdentityHint:    []byte(username),
		CipherSuites:       []dtls.CipherSuiteID{dtls.TLS_PSK_WITH_AES_128_GCM_SHA256},
		InsecureSkipVerify: true,
		LoggerFactory:      lf,
	})
	if err != nil {
		return nil, fmt.Errorf("DTLS handshake: %w", err)
	}

	return &hueStreamer{conn: conn, areaID: area.ID, channelIDs: area.ChannelIDs}, nil
}

// Send writes c to every channel of the area.
func (s *hueStreamer) Send(c RGB) error {
	msg := hueStreamMessage(s.areaID, s.channelIDs, c, s.seq)
	s.seq++
	if _, err := s.conn.Write(msg); err != nil {
		return fmt.Errorf("writing to DTLS: %w", err)
	}
	return nil
}

func (s *hueStreamer) Close() error {
	return s.conn.Close()
}

// hueStreamMessage builds a HueStream v2 packet in the RGB color space:
// a 52 byte header followed by 7 bytes per channel (id, then 16-bit R, G, B
// big endian).
func hueStreamMessage(areaID string, channelIDs []uint8, c RGB, seq uint8) []byte {
	msg := make([]byte, hueHeaderSize+hueChannelSize*len(channelIDs))

	copy(msg[0:9], "HueStream")
	msg[9] = 0x02 // major version
	msg[10] = 0x00
	msg[11] = seq
	// 12-13 reserved, 14 color space (0 = RGB), 15 reserved
	copy(msg[16:hueHeaderSize], areaID[:min(len(areaID), hueAreaIDSize)])

	r16 := uint16(c.R) * 257
	g16 := uint16(c.G) * 257
	b16 := uint16(c.B) * 257

	off := hueHeaderSize
	for _, ch := range channelIDs {
		msg[off] = ch
		msg[off+1], msg[off+2] = byte(r16>>8), byte(r16)
		msg[off+3], msg[off+4] = byte(g16>>8), byte(g16)
		msg[off+5], msg[off+6] = byte(b16>>8), byte(b16)
		off += hueChannelSize
	}
	return msg
}
