// Package classify maps a raw HTTP request into the structured context tuple
// consumed by the trust engine: device type, network type, device info and a
// stable device fingerprint.
package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"

	"github.com/trustgate/platform/internal/domain"
)

// NetworkType classifies the network a request originates from.
type NetworkType string

const (
	NetworkCorporate NetworkType = "corporate"
	NetworkHome      NetworkType = "home"
	NetworkPublic    NetworkType = "public"
	NetworkVPN       NetworkType = "vpn"
)

// DeviceInfo holds parsed user-agent details.
type DeviceInfo struct {
	Platform       string `json:"platform"`
	Browser        string `json:"browser"`
	OSVersion      string `json:"os_version,omitempty"`
	BrowserVersion string `json:"browser_version,omitempty"`
}

// Context is the classified request context handed to the engine.
type Context struct {
	DeviceType  domain.DeviceType `json:"device_type"`
	NetworkType NetworkType       `json:"network_type"`
	IPAddress   string            `json:"ip_address"`
	UserAgent   string            `json:"user_agent"`
	DeviceInfo  DeviceInfo        `json:"device_info"`
	Fingerprint string            `json:"device_fingerprint"`
}

// Request is the raw signal extracted from an HTTP request.
type Request struct {
	UserAgent   string
	IPAddress   string
	ManagedHint bool
}

// FromHTTP extracts the classifier inputs from an incoming request. The
// client IP honors X-Forwarded-For (first hop) before RemoteAddr. A device
// is hinted as managed when the MDM agent injects the X-Managed-Device
// header or tags the user agent.
func FromHTTP(r *http.Request) Request {
	ip := r.Header.Get("X-Forwarded-For")
	if ip != "" {
		if idx := strings.Index(ip, ","); idx >= 0 {
			ip = ip[:idx]
		}
		ip = strings.TrimSpace(ip)
	} else {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		ip = host
	}

	ua := r.UserAgent()
	managed := r.Header.Get("X-Managed-Device") == "true" || strings.Contains(ua, "CorpMDM")

	return Request{UserAgent: ua, IPAddress: ip, ManagedHint: managed}
}

// Classifier maps a raw request into a Context.
type Classifier interface {
	Classify(req Request) Context
}

// HeaderClassifier is the default deterministic classifier. Network type is
// derived from the client IP against the configured corporate and VPN CIDR
// ranges; private ranges outside those are treated as home networks.
type HeaderClassifier struct {
	corporate []*net.IPNet
	vpn       []*net.IPNet
}

// NewHeaderClassifier parses the corporate and VPN CIDR lists. Invalid
// entries are skipped.
func NewHeaderClassifier(corporateCIDRs, vpnCIDRs []string) *HeaderClassifier {
	return &HeaderClassifier{
		corporate: parseCIDRs(corporateCIDRs),
		vpn:       parseCIDRs(vpnCIDRs),
	}
}

func parseCIDRs(cidrs []string) []*net.IPNet {
	var nets []*net.IPNet
	for _, c := range cidrs {
		if _, n, err := net.ParseCIDR(strings.TrimSpace(c)); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}

// Classify builds the context tuple. The fingerprint is a deterministic
// digest of (user agent, ip) so that it is stable across requests from the
// same device.
func (c *HeaderClassifier) Classify(req Request) Context {
	deviceType := domain.DevicePersonal
	if req.ManagedHint {
		deviceType = domain.DeviceManaged
	}

	return Context{
		DeviceType:  deviceType,
		NetworkType: c.classifyNetwork(req.IPAddress),
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
		DeviceInfo:  parseUserAgent(req.UserAgent),
		Fingerprint: Fingerprint(req.UserAgent, req.IPAddress),
	}
}

func (c *HeaderClassifier) classifyNetwork(ipStr string) NetworkType {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return NetworkPublic
	}
	for _, n := range c.corporate {
		if n.Contains(ip) {
			return NetworkCorporate
		}
	}
	for _, n := range c.vpn {
		if n.Contains(ip) {
			return NetworkVPN
		}
	}
	if ip.IsPrivate() || ip.IsLoopback() {
		return NetworkHome
	}
	return NetworkPublic
}

// Fingerprint derives the stable device fingerprint from the user agent and
// client IP.
func Fingerprint(userAgent, ip string) string {
	sum := sha256.Sum256([]byte(userAgent + "|" + ip))
	return hex.EncodeToString(sum[:])
}

func parseUserAgent(ua string) DeviceInfo {
	info := DeviceInfo{Platform: "unknown", Browser: "unknown"}
	lower := strings.ToLower(ua)

	switch {
	case strings.Contains(lower, "windows"):
		info.Platform = "windows"
	case strings.Contains(lower, "mac os") || strings.Contains(lower, "macintosh"):
		info.Platform = "macos"
	case strings.Contains(lower, "android"):
		info.Platform = "android"
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad"):
		info.Platform = "ios"
	case strings.Contains(lower, "linux"):
		info.Platform = "linux"
	}

	// Order matters: Chrome UAs contain "safari", Edge UAs contain "chrome".
	switch {
	case strings.Contains(lower, "edg/"):
		info.Browser = "edge"
		info.BrowserVersion = versionAfter(ua, "Edg/")
	case strings.Contains(lower, "firefox/"):
		info.Browser = "firefox"
		info.BrowserVersion = versionAfter(ua, "Firefox/")
	case strings.Contains(lower, "chrome/"):
		info.Browser = "chrome"
		info.BrowserVersion = versionAfter(ua, "Chrome/")
	case strings.Contains(lower, "safari/"):
		info.Browser = "safari"
		info.BrowserVersion = versionAfter(ua, "Version/")
	}

	return info
}

func versionAfter(ua, marker string) string {
	idx := strings.Index(ua, marker)
	if idx < 0 {
		return ""
	}
	rest := ua[idx+len(marker):]
	if end := strings.IndexAny(rest, " ;)"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}
