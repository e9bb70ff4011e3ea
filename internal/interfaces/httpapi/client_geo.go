package httpapi

import (
	"net/http"
	"net/netip"
	"strings"
)

const unknownCountry = "ZZ"

var (
	clientIPHeaders      = []string{"Fly-Client-IP", "X-Forwarded-For", "X-Real-IP"}
	clientCountryHeaders = []string{"Fly-Client-Country", "CF-IPCountry", "X-Vercel-IP-Country", "CloudFront-Viewer-Country"}
)

// clientOrigin is where a request came from, as far as proxy headers tell.
type clientOrigin struct {
	IP      string
	Country string
}

func originOf(r *http.Request) clientOrigin {
	origin := clientOrigin{Country: unknownCountry}

	for _, header := range clientIPHeaders {
		if ip := parseClientIP(r.Header.Get(header)); ip != "" {
			origin.IP = ip
			break
		}
	}
	if origin.IP == "" {
		origin.IP = parseClientIP(r.RemoteAddr)
	}

	for _, header := range clientCountryHeaders {
		if code := parseCountry(r.Header.Get(header)); code != "" {
			origin.Country = code
			break
		}
	}
	return origin
}

// parseClientIP takes the first hop of a forwarded list and drops any port.
func parseClientIP(raw string) string {
	value, _, _ := strings.Cut(raw, ",")
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	if addrPort, err := netip.ParseAddrPort(value); err == nil {
		return addrPort.Addr().Unmap().String()
	}
	addr, err := netip.ParseAddr(strings.Trim(value, "[]"))
	if err != nil {
		return ""
	}
	return addr.Unmap().String()
}

func parseCountry(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return ""
	}
	return code
}
