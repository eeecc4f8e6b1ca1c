package link

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	ncerr "goecho/internal/errors"
	"goecho/util"
)

// startUDPEcho runs a one-shot UDP echo server on 127.0.0.1 and
// returns its address.
func startUDPEcho(t *testing.T) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { pc.Close() })

	go func() {
		buf := make([]byte, 64)
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		pc.WriteTo(buf[:n], addr)
	}()

	return pc.LocalAddr().String()
}

// startTCPEcho runs a one-shot TCP echo server on 127.0.0.1 and
// returns its address.
func startTCPEcho(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		conn.Write(buf[:n])
	}()

	return ln.Addr().String()
}

func connectedHostLink(t *testing.T) *HostLink {
	t.Helper()
	l := NewHostLink()
	if err := l.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestHostLink_Connect(t *testing.T) {
	l := NewHostLink()
	if l.IsConnected() {
		t.Fatal("new link reports connected")
	}

	if err := l.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !l.IsConnected() {
		t.Error("link not connected after Connect")
	}
	if l.Address() == "" {
		t.Error("no local address after Connect")
	}

	l.Close()
	if l.IsConnected() {
		t.Error("link still connected after Close")
	}
}

func TestHostLink_Resolve(t *testing.T) {
	l := connectedHostLink(t)

	// Literal IPs pass straight through, no resolver round-trip.
	got, err := l.Resolve(context.Background(), "127.0.0.1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "127.0.0.1" {
		t.Errorf("Resolve(127.0.0.1) = %q", got)
	}

	got, err = l.Resolve(context.Background(), "localhost")
	if err != nil {
		t.Fatalf("resolve localhost: %v", err)
	}
	if net.ParseIP(got) == nil {
		t.Errorf("Resolve(localhost) = %q, not an IP", got)
	}
}

func TestHostLink_OpenBeforeConnect(t *testing.T) {
	l := NewHostLink()
	if _, err := l.Open(Datagram); !errors.Is(err, ncerr.ErrNotConnected) {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}

func TestHostLink_DatagramEcho(t *testing.T) {
	addr := startUDPEcho(t)
	l := connectedHostLink(t)

	sock, err := l.Open(Datagram)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sock.Close()
	sock.SetTimeout(2 * time.Second)

	sent, err := sock.SendTo(addr, []byte("TEST"))
	if err != nil {
		t.Fatalf("sendto: %v", err)
	}
	if sent != 4 {
		t.Errorf("sent = %d, want 4", sent)
	}

	buf := make([]byte, 4)
	n, from, err := sock.RecvFrom(buf)
	if err != nil {
		t.Fatalf("recvfrom: %v", err)
	}
	if n != 4 || string(buf[:n]) != "TEST" {
		t.Errorf("got %d bytes %q", n, buf[:n])
	}
	if from == "" {
		t.Error("no sender address")
	}
}

func TestHostLink_StreamEcho(t *testing.T) {
	addr := startTCPEcho(t)
	l := connectedHostLink(t)

	sock, err := l.Open(Stream)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sock.Close()
	sock.SetTimeout(2 * time.Second)

	if err := sock.Connect(context.Background(), addr); err != nil {
		t.Fatalf("socket connect: %v", err)
	}

	sent, err := sock.Send([]byte("TEST"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	buf := make([]byte, 4)
	n, err := sock.Recv(buf)
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if n != sent || string(buf[:n]) != "TEST" {
		t.Errorf("got %d bytes %q, sent %d", n, buf[:n], sent)
	}
}

func TestHostLink_DatagramTimeout(t *testing.T) {
	// A server that never replies.
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer pc.Close()

	l := connectedHostLink(t)
	sock, err := l.Open(Datagram)
	if err != nil {
		t.Fatal(err)
	}
	defer sock.Close()

	timeout := 100 * time.Millisecond
	sock.SetTimeout(timeout)

	if _, err := sock.SendTo(pc.LocalAddr().String(), []byte("TEST")); err != nil {
		t.Fatalf("sendto: %v", err)
	}

	start := time.Now()
	buf := make([]byte, 4)
	n, _, err := sock.RecvFrom(buf)
	elapsed := time.Since(start)

	if n != 0 || err == nil {
		t.Fatalf("expected timeout, got n=%d err=%v", n, err)
	}
	if !ncerr.IsTimeout(err) {
		t.Errorf("err %v is not a timeout", err)
	}
	if elapsed < timeout {
		t.Errorf("returned after %v, before the %v timeout", elapsed, timeout)
	}
	if elapsed > 2*time.Second {
		t.Errorf("returned after %v, timeout not bounded", elapsed)
	}
}

func TestSocket_WrongKindOperations(t *testing.T) {
	l := connectedHostLink(t)

	dg, err := l.Open(Datagram)
	if err != nil {
		t.Fatal(err)
	}
	defer dg.Close()

	if _, err := dg.Send([]byte("x")); !errors.Is(err, ncerr.ErrNotSupported) {
		t.Errorf("datagram Send err = %v", err)
	}
	if err := dg.Connect(context.Background(), "127.0.0.1:1"); !errors.Is(err, ncerr.ErrNotSupported) {
		t.Errorf("datagram Connect err = %v", err)
	}

	st, err := l.Open(Stream)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if _, err := st.SendTo("127.0.0.1:1", []byte("x")); !errors.Is(err, ncerr.ErrNotSupported) {
		t.Errorf("stream SendTo err = %v", err)
	}
}

func TestSocket_CloseIdempotent(t *testing.T) {
	l := connectedHostLink(t)
	sock, err := l.Open(Datagram)
	if err != nil {
		t.Fatal(err)
	}
	if err := sock.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := sock.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestTransport_Strings(t *testing.T) {
	if Datagram.String() != "datagram" || Stream.String() != "stream" {
		t.Error("transport names wrong")
	}
	if Datagram.Network() != "udp" || Stream.Network() != "tcp" {
		t.Error("transport networks wrong")
	}
}

func TestFormatAddrRoundTrip(t *testing.T) {
	// The address produced for sockets must be dialable as-is.
	addr := util.FormatAddr("127.0.0.1", 7)
	if _, err := net.ResolveUDPAddr("udp", addr); err != nil {
		t.Errorf("address %q not resolvable: %v", addr, err)
	}
}
