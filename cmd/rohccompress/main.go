// Command rohccompress is a demo driver for the rohc package: it reads
// TCP/IP frames (live from a raw socket/WinDivert handle, or replayed
// from a recorded frame file) and compresses each one through a
// per-flow rohc.Context, printing the chosen format and the original
// and compressed sizes. It is not a ROHC multiplexer: CID framing,
// decompression, and cross-profile dispatch are explicitly out of
// scope (spec.md 1, 11), so this driver owns exactly the narrow
// interfaces rohc.Compress needs and nothing more.
package main

import (
	"crypto/rand"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/google/gopacket"

	"github.com/go-rohc/tcp6846/config"
	"github.com/go-rohc/tcp6846/rohc"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML engine config (defaults baked in if omitted)")
	framesPath := flag.String("frames", "", "replay frames from a recorded frame file instead of live capture")
	iface := flag.String("iface", "", "interface name for live capture (platform-specific)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("rohccompress: %v", err)
		}
		cfg = loaded
	}

	eng := &engine{
		cfg:      rohc.EngineConfigFromFile(cfg),
		rnd:      cryptoRandSource{},
		tracer:   logTracer{},
		contexts: make(map[flowKey]*rohc.Context),
	}

	var src frameSource
	var err error
	if *framesPath != "" {
		src, err = openFrameFile(*framesPath)
	} else {
		src, err = openLiveCapture(*iface, cfg.Capture)
	}
	if err != nil {
		log.Fatalf("rohccompress: %v", err)
	}
	defer src.Close()

	dest := make([]byte, 256)
	for {
		frame, firstLayer, err := src.Next()
		if err != nil {
			fmt.Fprintln(os.Stderr, "rohccompress: capture ended:", err)
			return
		}
		eng.handleFrame(frame, firstLayer, dest)
	}
}

// flowKey identifies a TCP flow the way CheckContext's I5 equality
// check does: addresses plus ports. It is intentionally coarser than
// a full 5-tuple+flow-label comparison, which CheckContext still
// performs before a frame is allowed to reuse an existing context.
type flowKey struct {
	srcPort, dstPort uint16
	addrs            string
}

type engine struct {
	mu       sync.Mutex
	cfg      rohc.EngineConfig
	rnd      rohc.RandomSource
	tracer   rohc.Tracer
	contexts map[flowKey]*rohc.Context
}

func (e *engine) handleFrame(frame []byte, firstLayer gopacket.LayerType, dest []byte) {
	pkt, err := rohc.ParsePacket(frame, firstLayer)
	if err != nil {
		e.tracer.Tracef("rohccompress: not eligible: %v", err)
		return
	}
	if !rohc.CheckProfile(pkt, true) {
		return
	}

	key := keyFor(pkt)

	e.mu.Lock()
	ctx, ok := e.contexts[key]
	if ok {
		switch rohc.CheckContext(ctx, pkt) {
		case rohc.ContextNotBelongs, rohc.ContextCannotCompress:
			ctx = rohc.NewContext(pkt, e.rnd, e.cfg)
			e.contexts[key] = ctx
		}
	} else {
		ctx = rohc.NewContext(pkt, e.rnd, e.cfg)
		e.contexts[key] = ctx
	}
	e.mu.Unlock()

	res, err := rohc.Compress(ctx, pkt, dest, e.rnd, e.tracer)
	if err != nil {
		e.tracer.Tracef("rohccompress: compress failed: %v", err)
		return
	}
	fmt.Printf("flow=%v format=%-10s original=%dB compressed=%dB\n",
		key, res.PacketType, len(frame), len(res.Bytes))
}

func keyFor(pkt *rohc.ParsedPacket) flowKey {
	inner := pkt.Innermost()
	addrs := fmt.Sprintf("%v>%v %v>%v", inner.SrcAddrV4, inner.DstAddrV4, inner.SrcAddrV6, inner.DstAddrV6)
	return flowKey{srcPort: pkt.TCP.SrcPort, dstPort: pkt.TCP.DstPort, addrs: addrs}
}

type cryptoRandSource struct{}

func (cryptoRandSource) Uint32() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0x12345678
	}
	return binary.BigEndian.Uint32(b[:])
}

type logTracer struct{}

func (logTracer) Tracef(format string, args ...interface{}) {
	log.Printf(format, args...)
}

// frameSource abstracts over live capture and recorded-frame replay.
type frameSource interface {
	Next() (frame []byte, firstLayer gopacket.LayerType, err error)
	Close() error
}
