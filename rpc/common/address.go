package common

import (
	"bytes"
	"fmt"
	"net"
	"strconv"

	"github.com/ValentinKolb/kvmsg/lib/wire"
)

// AddressSize is the encoded size of an Address (4 host bytes + 4 port bytes)
const AddressSize = 8

// Address identifies a node endpoint. It is comparable and can be used as map key.
type Address struct {
	Host [4]byte
	Port uint32
}

// NewAddress creates an address from an IPv4 address and a port
func NewAddress(ip net.IP, port int) (Address, error) {
	v4 := ip.To4()
	if v4 == nil {
		return Address{}, fmt.Errorf("address %s is not an IPv4 address", ip)
	}
	if port < 0 || port > 65535 {
		return Address{}, fmt.Errorf("port %d out of range", port)
	}
	var a Address
	copy(a.Host[:], v4)
	a.Port = uint32(port)
	return a, nil
}

// MustAddress is like NewAddress but panics on error. Intended for tests and constants.
func MustAddress(host string, port int) Address {
	a, err := NewAddress(net.ParseIP(host), port)
	if err != nil {
		panic(err)
	}
	return a
}

// ParseAddress parses "host:port". Host names are resolved to their first IPv4 address.
func ParseAddress(s string) (Address, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid port in %q: %w", s, err)
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil {
			return Address{}, fmt.Errorf("failed to resolve %q: %w", host, err)
		}
		for _, candidate := range ips {
			if candidate.To4() != nil {
				ip = candidate
				break
			}
		}
		if ip == nil {
			return Address{}, fmt.Errorf("no IPv4 address found for %q", host)
		}
	}
	return NewAddress(ip, port)
}

// ParseAddresses parses a list of "host:port" strings
func ParseAddresses(list []string) ([]Address, error) {
	addrs := make([]Address, 0, len(list))
	for _, s := range list {
		a, err := ParseAddress(s)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// IP returns the host part as net.IP
func (a Address) IP() net.IP {
	return net.IPv4(a.Host[0], a.Host[1], a.Host[2], a.Host[3])
}

// SameHost reports whether both addresses share the host part
func (a Address) SameHost(b Address) bool { return a.Host == b.Host }

// IsZero reports whether the address is unset
func (a Address) IsZero() bool { return a == Address{} }

// Compare orders by host bytes (unsigned) and then by port
func (a Address) Compare(b Address) int {
	if c := bytes.Compare(a.Host[:], b.Host[:]); c != 0 {
		return c
	}
	switch {
	case a.Port < b.Port:
		return -1
	case a.Port > b.Port:
		return 1
	default:
		return 0
	}
}

func (a Address) String() string {
	return net.JoinHostPort(a.IP().String(), strconv.FormatUint(uint64(a.Port), 10))
}

// UDPAddr converts the address for the net package
func (a Address) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: a.IP(), Port: int(a.Port)}
}

// PutAddress writes the 8 byte wire form of a
func PutAddress(w *wire.Writer, a Address) {
	w.PutBytes(a.Host[:])
	w.PutUint32(a.Port)
}

// ReadAddress reads the 8 byte wire form of an address
func ReadAddress(r *wire.Reader) (Address, error) {
	var a Address
	host, err := r.Bytes(4)
	if err != nil {
		return a, fmt.Errorf("address host: %w", err)
	}
	port, err := r.Uint32()
	if err != nil {
		return a, fmt.Errorf("address port: %w", err)
	}
	copy(a.Host[:], host)
	a.Port = port
	return a, nil
}
