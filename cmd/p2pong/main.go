package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"net/netip"
	"os"
	"os/signal"
	"syscall"

	"github.com/will-marella/p2pong/bot"
	"github.com/will-marella/p2pong/game"
	"github.com/will-marella/p2pong/netplay"
	"github.com/will-marella/p2pong/session"
)

var (
	listenPort = flag.Uint("listen", 0, "TCP port to accept direct connections on (0 picks one)")
	connect    = flag.String("connect", "", "peer locator to connect to; empty means host a match")
	relayAddr  = flag.String("relay", "", "relay multiaddr (with /p2p/ peer id) for rendezvous")
	external   = flag.String("external-ip", "", "manually-known public ip:port, overrides discovery")
	reconcile  = flag.String("reconcile", "snap", "ball reconciliation policy: snap or blend")
	local      = flag.Bool("local", false, "two players on this keyboard, no networking")
	aiKind     = flag.String("ai", "", "play solo against a bot: easy, medium, hard, or backboard")
	logLevel   = flag.String("log-level", "warn", "log level: debug, info, warn, error")
)

var programLevel = new(slog.LevelVar)

func parsePort(v uint) (uint16, error) {
	if v > math.MaxUint16 {
		return 0, fmt.Errorf("port %d out of range", v)
	}
	return uint16(v), nil
}

func main() {
	flag.Parse()

	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: programLevel})
	slog.SetDefault(slog.New(h))
	if err := programLevel.UnmarshalText([]byte(*logLevel)); err != nil {
		log.Fatalf("bad -log-level: %v", err)
	}

	port, err := parsePort(*listenPort)
	if err != nil {
		log.Fatalf("bad -listen: %v", err)
	}

	policy, err := netplay.ParsePolicy(*reconcile)
	if err != nil {
		log.Fatalf("bad -reconcile: %v", err)
	}
	cfg := netplay.Config{Reconcile: policy}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *local {
		runLocal(ctx, cfg)
		return
	}

	if *aiKind != "" {
		runSolo(ctx, cfg, *aiKind)
		return
	}

	runNetworked(ctx, cfg, port)
}

func runLocal(ctx context.Context, cfg netplay.Config) {
	in := newStdinInput(game.RoleLocal)
	out := newANSIRenderer(game.RoleLocal)

	if err := netplay.NewLocal(in, out, cfg).Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("match failed: %v", err)
	}
}

func runSolo(ctx context.Context, cfg netplay.Config, kind string) {
	opp, err := bot.New(kind)
	if err != nil {
		log.Fatalf("bad -ai: %v", err)
	}

	in := newStdinInput(game.RoleHost)
	out := newANSIRenderer(game.RoleHost)

	fmt.Printf("playing against the %s bot\n", opp.Name())

	if err := netplay.NewSolo(in, opp, out, cfg).Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("match failed: %v", err)
	}
}

func runNetworked(ctx context.Context, cfg netplay.Config, port uint16) {
	role := game.RoleHost
	if *connect != "" {
		role = game.RoleClient
	}

	opts := session.Options{ListenPort: port}
	if *external != "" {
		ap, err := netip.ParseAddrPort(*external)
		if err != nil {
			log.Fatalf("bad -external-ip: %v", err)
		}
		opts.ManualExternalAddr = ap
	}

	tr, err := session.NewP2P(session.P2PConfig{
		ListenPort: port,
		Relay:      *relayAddr,
	})
	if err != nil {
		log.Fatalf("starting transport: %v", err)
	}

	var sess *session.Session
	if role == game.RoleHost {
		sess = session.Listen(ctx, tr, opts)
		fmt.Printf("hosting; peer id: %s\n", tr.ID())
		fmt.Printf("locator: %s\n", sess.Locator())
		fmt.Println("waiting for an opponent...")
	} else {
		sess = session.Dial(ctx, tr, *connect, opts)
		fmt.Println("connecting...")
	}
	defer sess.Close()

	if err := sess.WaitReady(ctx); err != nil {
		log.Fatalf("connection failed: %v", err)
	}
	fmt.Println("connected, game on")

	in := newStdinInput(role)
	out := newANSIRenderer(role)

	if err := netplay.New(role, sess, in, out, cfg).Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("match failed: %v", err)
	}
}
