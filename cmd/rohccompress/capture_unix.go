//go:build linux || darwin

package main

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"

	"github.com/go-rohc/tcp6846/config"
)

// captureRcvBuf is the SO_RCVBUF size requested on the raw socket, big
// enough to absorb a burst of full-size segments between two reads of
// the capture loop without the kernel dropping datagrams.
const captureRcvBuf = 1 << 20

// liveCapture reads raw IP datagrams off a net.IPConn, the same
// net.ListenPacket("ip:<proto>", ...) mechanism pconn.go uses to
// listen for the PCP protocol. Here the protocol ID is configurable
// (default 6, TCP) so the driver sees TCP/IP datagrams directly
// rather than the teacher's own protocol.
//
// v6 is nil on the IPv4 path. On the IPv6 path raw sockets never
// deliver the IP header itself (RFC 3542), only the payload plus
// ancillary control data, so v6 reads hop limit and addresses through
// golang.org/x/net/ipv6 and this file reconstructs a 40-byte header
// in front of the payload before handing the frame to rohc.ParsePacket.
type liveCapture struct {
	conn *net.IPConn
	v6   *ipv6.PacketConn
	buf  [65536]byte
}

func openLiveCapture(iface string, cfg config.CaptureConfig) (*liveCapture, error) {
	proto := cfg.ProtocolID
	if proto == 0 {
		proto = 6
	}
	addr := &net.IPAddr{}
	if iface != "" {
		ip, err := interfaceAddr(iface)
		if err != nil {
			return nil, err
		}
		addr.IP = ip
	}

	network := fmt.Sprintf("ip4:%d", proto)
	if cfg.IPv6 {
		network = fmt.Sprintf("ip6:%d", proto)
	}
	conn, err := net.ListenIP(network, addr)
	if err != nil {
		return nil, fmt.Errorf("rohccompress: listen raw ip: %w", err)
	}
	if err := raiseReceiveBuffer(conn); err != nil {
		conn.Close()
		return nil, err
	}

	lc := &liveCapture{conn: conn}
	if cfg.IPv6 {
		lc.v6 = ipv6.NewPacketConn(conn)
		if err := lc.v6.SetControlMessage(ipv6.FlagHopLimit|ipv6.FlagDst|ipv6.FlagSrc, true); err != nil {
			conn.Close()
			return nil, fmt.Errorf("rohccompress: set ipv6 control message: %w", err)
		}
	}
	return lc, nil
}

func (c *liveCapture) Next() ([]byte, gopacket.LayerType, error) {
	if c.v6 != nil {
		return c.nextIPv6()
	}
	n, _, err := c.conn.ReadFromIP(c.buf[:])
	if err != nil {
		return nil, 0, fmt.Errorf("rohccompress: read raw ip: %w", err)
	}
	frame := make([]byte, n)
	copy(frame, c.buf[:n])
	return frame, layers.LayerTypeIPv4, nil
}

func (c *liveCapture) nextIPv6() ([]byte, gopacket.LayerType, error) {
	n, cm, _, err := c.v6.ReadFrom(c.buf[:])
	if err != nil {
		return nil, 0, fmt.Errorf("rohccompress: read raw ipv6: %w", err)
	}
	frame := make([]byte, 40+n)
	writeSyntheticIPv6Header(frame, cm, n)
	copy(frame[40:], c.buf[:n])
	return frame, layers.LayerTypeIPv6, nil
}

// writeSyntheticIPv6Header fills in just enough of a 40-byte IPv6
// header for rohc.ParsePacket's gopacket decode to succeed: version,
// payload length, next header (TCP), hop limit, and the source/dest
// addresses the kernel reported out of band.
func writeSyntheticIPv6Header(out []byte, cm *ipv6.ControlMessage, payloadLen int) {
	out[0] = 0x60 // version 6, traffic class/flow label left zero
	binary.BigEndian.PutUint16(out[4:6], uint16(payloadLen))
	out[6] = 6 // next header: TCP
	if cm != nil {
		out[7] = byte(cm.HopLimit)
		copy(out[8:24], padTo16(cm.Src))
		copy(out[24:40], padTo16(cm.Dst))
	} else {
		out[7] = 64
	}
}

func padTo16(ip net.IP) []byte {
	if v6 := ip.To16(); v6 != nil {
		return v6
	}
	return make([]byte, 16)
}

// raiseReceiveBuffer widens the raw socket's kernel receive buffer
// via a direct setsockopt, the same golang.org/x/sys/unix layer
// afpacket-style capture tools reach for when net.IPConn's own API has
// no equivalent knob (there is no net.Conn.SetReadBuffer for IP
// sockets, only for UDP/TCP).
func raiseReceiveBuffer(conn *net.IPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("rohccompress: syscall conn: %w", err)
	}
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, captureRcvBuf)
	})
	if err != nil {
		return fmt.Errorf("rohccompress: raw control: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("rohccompress: setsockopt SO_RCVBUF: %w", sockErr)
	}
	return nil
}

func (c *liveCapture) Close() error { return c.conn.Close() }

func interfaceAddr(name string) (net.IP, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("rohccompress: interface %s: %w", name, err)
	}
	addrs, err := ifi.Addrs()
	if err != nil || len(addrs) == 0 {
		return nil, fmt.Errorf("rohccompress: no address on interface %s", name)
	}
	ipNet, ok := addrs[0].(*net.IPNet)
	if !ok {
		return nil, fmt.Errorf("rohccompress: unexpected address type on %s", name)
	}
	return ipNet.IP, nil
}
