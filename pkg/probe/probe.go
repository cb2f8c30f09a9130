// Package probe provides health checks the discovery engine uses to
// decide whether a candidate port hosts the companion server.
package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/go-ping/ping"

	"github.com/portscout/portscout/pkg/discovery"
)

// newPinger is swappable so tests can avoid real ICMP traffic.
var newPinger = ping.NewPinger

// TCP returns a probe that reports a port live when a TCP connection can
// be established. It cannot tell the companion server apart from any
// other listener; use HTTP when identity matters.
func TCP(host string) discovery.ProbeFunc {
	return func(ctx context.Context, port int) (bool, error) {
		var d net.Dialer
		address := net.JoinHostPort(host, strconv.Itoa(port))
		conn, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			return false, err
		}
		if err := conn.Close(); err != nil {
			return true, nil // the connect already proved liveness
		}
		return true, nil
	}
}

// HostReachable reports whether host answers ICMP echo requests.
// Loopback targets short-circuit to true without sending anything.
// Used as a pre-check before scanning a remote host's port range.
func HostReachable(ctx context.Context, host string, count int, timeout time.Duration) bool {
	if isLoopback(host) {
		return true
	}
	if count < 1 {
		count = 1
	}

	pinger, err := newPinger(host)
	if err != nil {
		return false
	}
	pinger.SetPrivileged(false)
	pinger.Count = count
	pinger.Timeout = timeout

	// Run blocks; stop it if the caller gives up first.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()

	if err := pinger.Run(); err != nil {
		return false
	}
	return pinger.Statistics().PacketsRecv > 0
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
