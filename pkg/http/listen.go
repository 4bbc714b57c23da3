package http

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// ErrNoAvailablePort is returned when every tried port is already bound
var ErrNoAvailablePort = errors.New("no available port")

// ListenFirstAvailable binds the first free TCP port in
// [startPort, startPort+attempts) on host and returns the listener with the
// port it bound.
func ListenFirstAvailable(host string, startPort, attempts int) (net.Listener, int, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for port := startPort; port < startPort+attempts && port <= 65535; port++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
		if err == nil {
			return ln, port, nil
		}
		lastErr = err
	}

	return nil, 0, fmt.Errorf("%w in %d..%d: %v", ErrNoAvailablePort, startPort, startPort+attempts-1, lastErr)
}
