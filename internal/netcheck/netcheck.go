// Package netcheck measures round-trip latency to a host for the website
// ping tool. ICMP is tried first; hosts that drop ICMP, or systems that
// refuse raw sockets, fall back to timing a TCP connect.
package netcheck

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"nathanbeddoewebdev/tsm/internal/metrics"

	probing "github.com/prometheus-community/pro-bing"
)

const (
	DefaultCount   = 4
	DefaultTimeout = 5 * time.Second
)

// Method records how a Result was measured.
type Method string

const (
	MethodICMP Method = "icmp"
	MethodTCP  Method = "tcp"
)

// Options configures Ping.
type Options struct {
	// Count is the number of probes. Zero selects DefaultCount.
	Count int

	// Timeout bounds the whole run. Zero selects DefaultTimeout.
	Timeout time.Duration

	// Privileged uses raw ICMP sockets instead of unprivileged UDP pings.
	Privileged bool

	// Port is used for the TCP fallback. Zero selects 443, or 80 for
	// http:// targets.
	Port int

	// NoFallback disables the TCP fallback.
	NoFallback bool
}

// Result summarises a run.
type Result struct {
	Host     string
	Addr     string
	Method   Method
	Sent     int
	Received int
	Min      time.Duration
	Avg      time.Duration
	Max      time.Duration
}

// Loss returns the fraction of probes without a reply, in percent.
func (r Result) Loss() float64 {
	if r.Sent == 0 {
		return 100
	}
	return float64(r.Sent-r.Received) / float64(r.Sent) * 100
}

// Reachable reports whether any probe was answered.
func (r Result) Reachable() bool { return r.Received > 0 }

// Level classifies the average latency the way the dashboard colours it.
func (r Result) Level() metrics.Level {
	if !r.Reachable() {
		return metrics.LevelCritical
	}
	return metrics.ClassifyLatency(float64(r.Avg.Milliseconds()))
}

// ErrUnreachable is returned when no probe of any method was answered.
var ErrUnreachable = errors.New("host unreachable")

// Target splits a host name or URL into the host to probe and the TCP
// port to fall back to.
func Target(raw string) (host string, port int, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0, errors.New("netcheck: host is required")
	}

	port = 443
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", 0, fmt.Errorf("netcheck: invalid URL %q: %w", raw, err)
		}
		if u.Scheme == "http" {
			port = 80
		}
		raw = u.Host
	}

	if h, p, err := net.SplitHostPort(raw); err == nil {
		var n int
		if _, err := fmt.Sscanf(p, "%d", &n); err == nil && n > 0 && n < 65536 {
			port = n
		}
		raw = h
	}

	raw = strings.Trim(raw, "[]")
	if raw == "" {
		return "", 0, errors.New("netcheck: host is required")
	}
	return raw, port, nil
}

// Ping probes target, which may be a host name, an IP, or a URL.
func Ping(ctx context.Context, target string, opts Options) (Result, error) {
	host, port, err := Target(target)
	if err != nil {
		return Result{}, err
	}
	if opts.Count <= 0 {
		opts.Count = DefaultCount
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Port > 0 {
		port = opts.Port
	}

	res, icmpErr := pingICMP(ctx, host, opts)
	if icmpErr == nil && res.Reachable() {
		return res, nil
	}
	if opts.NoFallback || ctx.Err() != nil {
		if icmpErr != nil {
			return res, icmpErr
		}
		return res, fmt.Errorf("%s: %w", host, ErrUnreachable)
	}

	tcp, tcpErr := ProbeTCP(ctx, host, port, opts.Count, opts.Timeout)
	if tcpErr != nil {
		return tcp, tcpErr
	}
	if !tcp.Reachable() {
		return tcp, fmt.Errorf("%s: %w", host, ErrUnreachable)
	}
	return tcp, nil
}

func pingICMP(ctx context.Context, host string, opts Options) (Result, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return Result{Host: host, Method: MethodICMP}, fmt.Errorf("netcheck: resolve %s: %w", host, err)
	}
	pinger.SetPrivileged(opts.Privileged)
	pinger.Count = opts.Count
	pinger.Timeout = opts.Timeout

	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case <-ctx.Done():
		pinger.Stop()
		<-done
		return fromStats(host, pinger.Statistics()), ctx.Err()
	case err := <-done:
		res := fromStats(host, pinger.Statistics())
		if err != nil {
			return res, fmt.Errorf("netcheck: icmp %s: %w", host, err)
		}
		return res, nil
	}
}

func fromStats(host string, st *probing.Statistics) Result {
	res := Result{Host: host, Method: MethodICMP}
	if st == nil {
		return res
	}
	res.Sent = st.PacketsSent
	res.Received = st.PacketsRecv
	if st.IPAddr != nil {
		res.Addr = st.IPAddr.String()
	}
	if st.PacketsRecv > 0 {
		res.Min = st.MinRtt
		res.Avg = st.AvgRtt
		res.Max = st.MaxRtt
	}
	return res
}

// ProbeTCP times count TCP connects to host:port. Each connect is bounded
// by timeout divided across the attempts.
func ProbeTCP(ctx context.Context, host string, port, count int, timeout time.Duration) (Result, error) {
	if count <= 0 {
		count = DefaultCount
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	per := timeout / time.Duration(count)
	if per < 200*time.Millisecond {
		per = 200 * time.Millisecond
	}

	addr := net.JoinHostPort(host, fmt.Sprint(port))
	res := Result{Host: host, Addr: addr, Method: MethodTCP}
	var total time.Duration

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Sent++

		dialer := net.Dialer{Timeout: per}
		start := time.Now()
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		rtt := time.Since(start)
		if err != nil {
			continue
		}
		_ = conn.Close()

		res.Received++
		total += rtt
		if res.Min == 0 || rtt < res.Min {
			res.Min = rtt
		}
		if rtt > res.Max {
			res.Max = rtt
		}
	}

	if res.Received > 0 {
		res.Avg = total / time.Duration(res.Received)
	}
	return res, nil
}
