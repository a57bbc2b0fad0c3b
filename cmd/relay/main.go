// A standalone rendezvous relay. Peers behind NAT reserve a slot here, meet
// over the circuit, then hole-punch their way to a direct connection.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	mrand "math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
	relayv2 "github.com/libp2p/go-libp2p/p2p/protocol/circuitv2/relay"
)

var (
	port     = flag.Uint("port", 4002, "TCP port to listen on")
	keySeed  = flag.Int64("key-seed", 0, "deterministic identity seed; 0 generates a fresh key")
	logLevel = flag.String("log-level", "info", "log level: debug, info, warn, error")
)

var programLevel = new(slog.LevelVar)

func main() {
	flag.Parse()

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel})
	slog.SetDefault(slog.New(h))
	if err := programLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		log.Fatalf("bad -log-level: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A stable seed keeps the relay's locator stable across restarts.
	var src io.Reader = rand.Reader
	if *keySeed != 0 {
		src = mrand.New(mrand.NewSource(*keySeed))
	}

	priv, _, err := crypto.GenerateEd25519Key(src)
	if err != nil {
		log.Fatalf("generating identity: %v", err)
	}

	host, err := libp2p.New(
		libp2p.Identity(priv),
		libp2p.ListenAddrStrings(fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", *port)),
		libp2p.ForceReachabilityPublic(),
	)
	if err != nil {
		log.Fatalf("building host: %v", err)
	}
	defer host.Close()

	// Game traffic is tiny; don't let default limits cut a match short.
	if _, err := relayv2.New(host, relayv2.WithInfiniteLimits()); err != nil {
		log.Fatalf("starting relay service: %v", err)
	}

	fmt.Println("relay up; peers reach it at:")
	for _, a := range host.Addrs() {
		fmt.Printf("  %s/p2p/%s\n", a, host.ID())
	}

	<-ctx.Done()
	slog.Info("relay: shutting down")
}
