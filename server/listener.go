package server

import (
	"context"
	"net"
	"strconv"
	"syscall"

	"backend/utils"
)

// Listen binds the port on IPv6 dual-stack first, falling back to IPv4 when
// the host has no usable IPv6 stack.
func Listen(ctx context.Context, port int) (net.Listener, error) {
	p := strconv.Itoa(port)
	addrIPv6 := "[::]:" + p

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			if network != "tcp6" {
				return nil
			}

			var sockErr error
			if controlErr := c.Control(func(fd uintptr) {
				sockErr = syscall.SetsockoptInt(int(fd), syscall.IPPROTO_IPV6, syscall.IPV6_V6ONLY, 0)
			}); controlErr != nil {
				return controlErr
			}
			return sockErr
		},
	}

	ln6, err := lc.Listen(ctx, "tcp6", addrIPv6)
	if err == nil {
		utils.LogInfo("bound dual-stack listener", "addr", addrIPv6)
		return ln6, nil
	}
	utils.LogWarn("IPv6 bind failed, falling back to IPv4", "addr", addrIPv6, "error", err)

	addrIPv4 := "0.0.0.0:" + p
	ln4, err := (&net.ListenConfig{}).Listen(ctx, "tcp4", addrIPv4)
	if err != nil {
		return nil, err
	}
	utils.LogInfo("bound IPv4 listener", "addr", addrIPv4)
	return ln4, nil
}
