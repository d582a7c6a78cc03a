// Copyright 2026 The radiod Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mcast sets up the multicast UDP sockets radiod uses for its
// I/Q input, PCM/status/command/RTCP output, and tuner-command streams.
// It mirrors original_source/multicast.c's soptions()/setup_mcast().
package mcast

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// control applies SO_REUSEPORT and SO_REUSEADDR to a socket before bind,
// matching soptions() in the original. TTL and multicast-loop are set
// after the socket exists, by DialOutput's ipv4.PacketConn wrapper below.
func control(_ string, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			sockErr = fmt.Errorf("set SO_REUSEPORT: %w", err)
			return
		}
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			sockErr = fmt.Errorf("set SO_REUSEADDR: %w", err)
		}
	})
	if err != nil {
		return err
	}
	return sockErr
}

// ListenInput binds a UDP socket to addr (host:port of a multicast
// group) and joins that group on iface (nil for the default interface),
// for receiving an inbound stream such as the I/Q input or the command
// stream.
func ListenInput(ctx context.Context, addr string, iface *net.Interface) (*net.UDPConn, error) {
	lc := net.ListenConfig{Control: control}
	pc, err := lc.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("mcast: listen %s: %w", addr, err)
	}
	conn := pc.(*net.UDPConn)
	if err := conn.SetReadBuffer(1 << 20); err != nil {
		// Not fatal: a smaller kernel buffer just risks more drops
		// under load, which the RTP layer already accounts for.
		_ = err
	}

	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p := ipv4.NewPacketConn(conn)
	if err := p.JoinGroup(iface, &net.UDPAddr{IP: udpAddr.IP}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mcast: join group %s: %w", addr, err)
	}
	return conn, nil
}

// DialOutput creates a UDP socket connected to addr (a multicast group
// and port) with the given TTL, suitable for send()-ing datagrams to a
// group without specifying a destination on every write.
func DialOutput(addr string, ttl int) (*net.UDPConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp4", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("mcast: dial %s: %w", addr, err)
	}
	p := ipv4.NewPacketConn(conn)
	if err := p.SetMulticastTTL(ttl); err != nil {
		conn.Close()
		return nil, fmt.Errorf("mcast: set ttl: %w", err)
	}
	if err := p.SetMulticastLoopback(true); err != nil {
		_ = err // non-fatal, matches soptions()'s perror-and-continue policy
	}
	return conn, nil
}

// WithOffset appends +offset to the port in a host:port address string,
// used for deriving the RTCP address (PCM output port+1) and the
// tuner-command address (I/Q input port+1).
func WithOffset(addr string, offset int) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	var p int
	if _, err := fmt.Sscanf(port, "%d", &p); err != nil {
		return "", fmt.Errorf("mcast: invalid port %q: %w", port, err)
	}
	return net.JoinHostPort(host, fmt.Sprintf("%d", p+offset)), nil
}
