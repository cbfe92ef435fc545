package repo

import (
	"net"
	"strconv"
)

const (
	checkPrefix = "deadman:check:"
	portPrefix  = "portwatch:state:"
)

func CheckKey(checkID string) string {
	return checkPrefix + checkID
}

// PortKey is "portwatch:state:<address>:<port>". IPv6 literals are not bracketed.
func PortKey(address string, port int) string {
	return portPrefix + address + ":" + strconv.Itoa(port)
}

// HostPort is the dial string for a port target.
func HostPort(address string, port int) string {
	return net.JoinHostPort(address, strconv.Itoa(port))
}
