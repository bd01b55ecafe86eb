package monitors

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/sahana/eden/internal/types"
)

const defaultDNSTimeout = 5

// DNS resolves the configured record and, when an expected value is given,
// requires it among the answers.
func (c *Checker) DNS(ctx context.Context, taskID, runID uint) (Result, error) {
	var opts types.DNSConfig

	if _, err := c.loadTask(ctx, taskID, &opts); err != nil {
		return criticalResult("Critical: %v", err), nil
	}

	if err := resolveRecord(ctx, c.Resolver, &opts); err != nil {
		return criticalResult("Critical: DNS Error\n\n%v", err), nil
	}

	return okResult("OK: %s record for %s resolved", strings.ToUpper(opts.RecordType), opts.Domain), nil
}

func resolveRecord(ctx context.Context, resolver *net.Resolver, config *types.DNSConfig) error {
	if config.Domain == "" {
		return fmt.Errorf("no domain specified")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultDNSTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	if resolver == nil {
		resolver = net.DefaultResolver
	}

	switch strings.ToUpper(config.RecordType) {
	case "A":
		return checkARecord(ctx, resolver, config)
	case "AAAA":
		return checkAAAARecord(ctx, resolver, config)
	case "CNAME":
		return checkCNAMERecord(ctx, resolver, config)
	case "MX":
		return checkMXRecord(ctx, resolver, config)
	case "TXT":
		return checkTXTRecord(ctx, resolver, config)
	case "NS":
		return checkNSRecord(ctx, resolver, config)
	default:
		return fmt.Errorf("unsupported record type %q", config.RecordType)
	}
}

func checkARecord(ctx context.Context, resolver *net.Resolver, config *types.DNSConfig) error {
	ips, err := resolver.LookupIP(ctx, "ip4", config.Domain)
	if err != nil {
		return fmt.Errorf("failed to resolve A record for %s: %w", config.Domain, err)
	}

	if len(ips) == 0 {
		return fmt.Errorf("no A records found for %s", config.Domain)
	}

	if config.Expected != "" {
		expectedIP := net.ParseIP(config.Expected)

		if expectedIP == nil {
			return fmt.Errorf("invalid expected IP: %s", config.Expected)
		}

		for _, ip := range ips {
			if ip.Equal(expectedIP) {
				return nil
			}
		}

		return fmt.Errorf("expected IP %s not found in DNS response", config.Expected)
	}

	return nil
}

func checkAAAARecord(ctx context.Context, resolver *net.Resolver, config *types.DNSConfig) error {
	ips, err := resolver.LookupIP(ctx, "ip6", config.Domain)
	if err != nil {
		return fmt.Errorf("failed to resolve AAAA record for %s: %w", config.Domain, err)
	}

	if len(ips) == 0 {
		return fmt.Errorf("no AAAA records found for %s", config.Domain)
	}

	if expectedIP := net.ParseIP(config.Expected); expectedIP != nil {
		for _, ip := range ips {
			if ip.Equal(expectedIP) {
				return nil
			}
		}
	}

	if config.Expected != "" {
		return fmt.Errorf("expected IPv6 %s not found in DNS response", config.Expected)
	}

	return nil
}

func checkCNAMERecord(ctx context.Context, resolver *net.Resolver, config *types.DNSConfig) error {
	cname, err := resolver.LookupCNAME(ctx, config.Domain)
	if err != nil {
		return fmt.Errorf("failed to resolve CNAME for %s: %w", config.Domain, err)
	}

	if config.Expected != "" && !sameHost(cname, config.Expected) {
		return fmt.Errorf("expected CNAME %s, got %s", config.Expected, cname)
	}

	return nil
}

func checkMXRecord(ctx context.Context, resolver *net.Resolver, config *types.DNSConfig) error {
	mxRecords, err := resolver.LookupMX(ctx, config.Domain)
	if err != nil {
		return fmt.Errorf("failed to resolve MX records for %s: %w", config.Domain, err)
	}

	if len(mxRecords) == 0 {
		return fmt.Errorf("no MX records found for %s", config.Domain)
	}

	if config.Expected != "" {
		for _, mx := range mxRecords {
			if sameHost(mx.Host, config.Expected) {
				return nil
			}
		}

		return fmt.Errorf("expected MX record %s not found", config.Expected)
	}

	return nil
}

func checkTXTRecord(ctx context.Context, resolver *net.Resolver, config *types.DNSConfig) error {
	txtRecords, err := resolver.LookupTXT(ctx, config.Domain)
	if err != nil {
		return fmt.Errorf("failed to resolve TXT records for %s: %w", config.Domain, err)
	}

	if len(txtRecords) == 0 {
		return fmt.Errorf("no TXT records found for %s", config.Domain)
	}

	if config.Expected != "" {
		for _, txt := range txtRecords {
			if txt == config.Expected {
				return nil
			}
		}

		return fmt.Errorf("expected TXT record content %s not found", config.Expected)
	}

	return nil
}

func checkNSRecord(ctx context.Context, resolver *net.Resolver, config *types.DNSConfig) error {
	nsRecords, err := resolver.LookupNS(ctx, config.Domain)
	if err != nil {
		return fmt.Errorf("failed to resolve NS records for %s: %w", config.Domain, err)
	}

	if len(nsRecords) == 0 {
		return fmt.Errorf("no NS records found for %s", config.Domain)
	}

	if config.Expected != "" {
		for _, ns := range nsRecords {
			if sameHost(ns.Host, config.Expected) {
				return nil
			}
		}

		return fmt.Errorf("expected NS record %s not found", config.Expected)
	}

	return nil
}

// sameHost compares DNS names ignoring case and the root label dot.
func sameHost(a, b string) bool {
	return strings.EqualFold(strings.TrimSuffix(a, "."), strings.TrimSuffix(b, "."))
}
