//go:build windows

package main

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	divert "github.com/imgk/divert-go"

	"github.com/go-rohc/tcp6846/config"
)

// liveCapture wraps a WinDivert network-layer handle, the same open
// call util-win.go uses to intercept RSTs, repurposed here to sniff
// every outbound TCP/IP packet instead of filtering a specific flag.
type liveCapture struct {
	handle *divert.Handle
	buf    [1500]byte
}

func openLiveCapture(iface string, cfg config.CaptureConfig) (*liveCapture, error) {
	filter := "tcp"
	if iface != "" {
		filter = fmt.Sprintf("tcp and ifIdx == %s", iface)
	}
	h, err := divert.Open(filter, divert.LayerNetwork, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("rohccompress: divert open: %w", err)
	}
	return &liveCapture{handle: h}, nil
}

func (c *liveCapture) Next() ([]byte, gopacket.LayerType, error) {
	addr := divert.Address{}
	n, err := c.handle.Recv(c.buf[:], &addr)
	if err != nil {
		return nil, 0, fmt.Errorf("rohccompress: divert recv: %w", err)
	}
	frame := make([]byte, n)
	copy(frame, c.buf[:n])

	if _, err := c.handle.Send(frame, &addr); err != nil {
		return nil, 0, fmt.Errorf("rohccompress: divert reinject: %w", err)
	}

	first := layers.LayerTypeIPv4
	if n > 0 && frame[0]>>4 == 6 {
		first = layers.LayerTypeIPv6
	}
	return frame, first, nil
}

func (c *liveCapture) Close() error { return c.handle.Close() }
