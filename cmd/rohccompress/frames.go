package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// frameFileSource replays a length-prefixed stream of raw IP frames,
// the offline analogue of live capture. Each record is a uint32
// big-endian byte length followed by that many bytes of an IPv4 or
// IPv6 datagram (no link-layer header, matching what a raw IP socket
// hands the teacher's pconn.go on Linux).
type frameFileSource struct {
	f *os.File
}

func openFrameFile(path string) (*frameFileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("rohccompress: open frame file: %w", err)
	}
	return &frameFileSource{f: f}, nil
}

func (s *frameFileSource) Next() ([]byte, gopacket.LayerType, error) {
	var length uint32
	if err := binary.Read(s.f, binary.BigEndian, &length); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		return nil, 0, fmt.Errorf("rohccompress: read frame length: %w", err)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(s.f, buf); err != nil {
		return nil, 0, fmt.Errorf("rohccompress: read frame body: %w", err)
	}
	return buf, firstLayerFor(buf), nil
}

func (s *frameFileSource) Close() error { return s.f.Close() }

// firstLayerFor distinguishes IPv4 from IPv6 by the version nibble,
// the same check gopacket's own DecodeLayers dispatch would make.
func firstLayerFor(buf []byte) gopacket.LayerType {
	if len(buf) == 0 {
		return layers.LayerTypeIPv4
	}
	if buf[0]>>4 == 6 {
		return layers.LayerTypeIPv6
	}
	return layers.LayerTypeIPv4
}
