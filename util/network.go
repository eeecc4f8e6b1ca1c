package util

import (
	"fmt"
	"net"
	"strconv"
)

// FormatAddr returns "host:port".
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// CheckNumericHost validates that host is a numeric IP when noDNS is
// true.
func CheckNumericHost(host string, noDNS bool) error {
	if noDNS && net.ParseIP(host) == nil {
		return fmt.Errorf("cannot parse %q as an IP address (DNS disabled with -n)", host)
	}
	return nil
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
