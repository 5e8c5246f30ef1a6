// Command rsh is a minimal, non-interactive client for rshd. It forwards
// each stdin line verbatim as a single command and prints the framed reply
// until the command's terminator frame or the server closes the session.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/samkreter/rshd/internal/rshd/wire"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <host> <port>\n", os.Args[0])
		os.Exit(2)
	}

	addr := net.JoinHostPort(os.Args[1], os.Args[2])
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rsh: dial %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		line := stdin.Text()
		if err := wire.WriteFrame(conn, []byte(line)); err != nil {
			fmt.Fprintf(os.Stderr, "rsh: send: %v\n", err)
			return
		}

		if !drainReply(conn) {
			return
		}

		if line == "exit" {
			return
		}
	}
}

// drainReply prints frames from conn until the command's terminator frame
// (an empty payload). It returns false if the server closed the session.
func drainReply(conn net.Conn) bool {
	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(os.Stderr, "rsh: recv: %v\n", err)
			}
			return false
		}
		if len(payload) == 0 {
			return true
		}
		os.Stdout.Write(payload)
	}
}
