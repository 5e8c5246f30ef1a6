// Package cli defines the rshd server CLI.
package cli

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/net/netutil"

	"github.com/samkreter/rshd/internal/rshd/diag"
	"github.com/samkreter/rshd/internal/rshd/executor"
	"github.com/samkreter/rshd/internal/rshd/scheduler"
	"github.com/samkreter/rshd/internal/rshd/session"
)

var (
	portFlag       = flag.Int("port", 5050, "port to serve the remote shell on")
	maxClientsFlag = flag.Int("max-clients", 256, "maximum number of concurrent client connections")
)

const (
	ecSuccess = iota
	// ecListen indicates rshd was unable to bind its listening port.
	ecListen
)

// Run is the entrypoint of the rshd server CLI.
func Run() int {
	flag.Parse()

	addr := fmt.Sprintf(":%d", *portFlag)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rshd: listen %s: %v\n", addr, err)
		return ecListen
	}
	ln = netutil.LimitListener(ln, *maxClientsFlag)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
		ln.Close()
	}()

	sink := diag.New(os.Stderr)
	sched := scheduler.New()
	exec := executor.New(sink, sched.Timeline)

	go sched.Run(ctx)

	fmt.Fprintf(os.Stdout, "rshd: listening on %s (max-clients=%d)\n", addr, *maxClientsFlag)

	var clientCounter int64

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ecSuccess
			default:
				sink.Error("accept", err)
				continue
			}
		}

		clientID := int(atomic.AddInt64(&clientCounter, 1))
		go session.Handle(conn, clientID, sched, exec, sink)
	}
}
