package validate

import (
	"errors"
	"net/netip"
	"strings"
)

// InvalidIPMessage is the user-facing message for a rejected address
const InvalidIPMessage = "Invalid IP address format. Must be a valid IPv4 or IPv6 address."

var (
	// ErrEmpty is returned when no address was supplied
	ErrEmpty = errors.New("IP address is required")

	// ErrInvalidIP is returned for anything that is not a literal IPv4 or IPv6 address
	ErrInvalidIP = errors.New(InvalidIPMessage)
)

// ParseIP trims input and parses it as an IPv4 or IPv6 literal.
// Hostnames, URLs, CIDR ranges and zoned addresses are rejected.
func ParseIP(input string) (netip.Addr, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return netip.Addr{}, ErrEmpty
	}

	addr, err := netip.ParseAddr(trimmed)
	if err != nil || addr.Zone() != "" {
		return netip.Addr{}, ErrInvalidIP
	}

	return addr, nil
}

// Normalize returns the canonical text form of input, e.g. "8.8.8.8" for
// " 8.8.8.8 " and "2001:4860:4860::8888" for an expanded IPv6 literal.
// IPv4-mapped IPv6 addresses are unmapped.
func Normalize(input string) (string, error) {
	addr, err := ParseIP(input)
	if err != nil {
		return "", err
	}
	return addr.Unmap().String(), nil
}

// IsValid reports whether input is a literal IP address
func IsValid(input string) bool {
	_, err := ParseIP(input)
	return err == nil
}

// IsPrivate reports whether input is an address no public reputation provider
// can know about: RFC 1918 / unique local, loopback, link-local or unspecified.
// Invalid input returns false.
func IsPrivate(input string) bool {
	addr, err := ParseIP(input)
	if err != nil {
		return false
	}
	addr = addr.Unmap()

	return addr.IsPrivate() ||
		addr.IsLoopback() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}
