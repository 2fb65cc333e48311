package fraud

import (
	"fmt"
	"net/netip"

	"github.com/ZanzyTHEbar/tender-integrity/internal/types"
)

// IPDetector flags participants who bid from the same or neighbouring addresses
type IPDetector struct {
	th Thresholds
}

func NewIPDetector(th Thresholds) *IPDetector {
	return &IPDetector{th: th}
}

func (d *IPDetector) Name() DetectionType { return TypeIPSimilarity }

type bidAddr struct {
	id   int64
	raw  string
	addr netip.Addr
}

func (d *IPDetector) Detect(participants []types.Participant) ([]Detection, error) {
	var addrs []bidAddr
	for _, p := range participants {
		if p.IPAddress == "" {
			continue
		}
		addr, err := netip.ParseAddr(p.IPAddress)
		if err != nil {
			// unparsable address only removes this participant from the comparison
			continue
		}
		addrs = append(addrs, bidAddr{id: p.ID, raw: p.IPAddress, addr: addr.Unmap()})
	}
	if len(addrs) < 2 {
		return nil, nil
	}

	var out []Detection
	for i := 0; i < len(addrs); i++ {
		for j := i + 1; j < len(addrs); j++ {
			a, b := addrs[i], addrs[j]
			similarity := ipSimilarity(a.addr, b.addr)
			if similarity < d.th.IPSimilarity {
				continue
			}
			severity := SeverityMedium
			if similarity >= d.th.IPHigh {
				severity = SeverityHigh
			}
			out = append(out, Detection{
				Type:        TypeIPSimilarity,
				Severity:    severity,
				RiskScore:   similarity * d.th.IPRiskScale,
				Description: fmt.Sprintf("IP addresses are related: %s and %s", a.raw, b.raw),
				Subject:     Binary(a.id, b.id),
				Evidence: map[string]any{
					"ip_1":             a.raw,
					"ip_2":             b.raw,
					"similarity_score": similarity,
					"subnet_1":         subnet24(a.addr),
					"subnet_2":         subnet24(b.addr),
				},
			})
		}
	}
	return out, nil
}

// ipSimilarity: identical 1.0, same IPv4 /24 0.8, same IPv4 /16 0.6
func ipSimilarity(a, b netip.Addr) float64 {
	if a == b {
		return 1.0
	}
	if !a.Is4() || !b.Is4() {
		return 0
	}
	if samePrefix(a, b, 24) {
		return 0.8
	}
	if samePrefix(a, b, 16) {
		return 0.6
	}
	return 0
}

func samePrefix(a, b netip.Addr, bits int) bool {
	pa, err := a.Prefix(bits)
	if err != nil {
		return false
	}
	return pa.Contains(b)
}

func subnet24(a netip.Addr) string {
	if !a.Is4() {
		return ""
	}
	p, err := a.Prefix(24)
	if err != nil {
		return ""
	}
	return p.String()
}
