package handy

import (
	"net"
	"os"

	"dashkit/internal/errors"
)

var proxyVars = []string{"HTTP_PROXY", "HTTPS_PROXY", "http_proxy", "https_proxy"}

// ProxyOff blanks the proxy environment variables for this process
func ProxyOff() error {
	for _, key := range proxyVars {
		if err := os.Setenv(key, ""); err != nil {
			return errors.Wrapf(err, "failed to clear %s", key)
		}
	}
	return nil
}

// GetHost returns the first non-loopback IPv4 address of this machine
func GetHost() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", errors.Wrap(err, "failed to list interface addresses")
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", errors.NotFound("non-loopback IPv4 address")
}
