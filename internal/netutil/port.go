package netutil

import (
	"errors"
	"fmt"
	"net"
)

// SelectBindAddr returns the first address the server can listen on. The
// preferred address wins when free; otherwise the candidate list is tried
// in order, but only when autoFallback allows it.
func SelectBindAddr(preferred string, candidates []string, autoFallback bool) (string, error) {
	if preferred != "" {
		ok, err := IsAddrAvailable(preferred)
		if err != nil {
			return "", err
		}
		if ok {
			return preferred, nil
		}
		if !autoFallback {
			return "", fmt.Errorf("bind address in use: %s", preferred)
		}
	}

	for _, addr := range candidates {
		if addr == preferred {
			continue
		}
		ok, err := IsAddrAvailable(addr)
		if err != nil {
			return "", err
		}
		if ok {
			return addr, nil
		}
	}

	return "", errors.New("no available bind addresses for the dashboard server")
}

// IsAddrAvailable reports whether an address can currently be listened on.
func IsAddrAvailable(addr string) (bool, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false, nil
	}
	if closeErr := ln.Close(); closeErr != nil {
		return false, closeErr
	}
	return true, nil
}
