// Package netutil provides small networking helpers.
package netutil

import "net"

// LocalIP returns the machine's LAN address, discovered by opening a UDP
// socket towards a public address. No packet is sent; the kernel just picks
// the outbound interface. Falls back to loopback when the machine is offline.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return addr.IP.String()
}
