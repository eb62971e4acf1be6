package builtins

import (
	"context"
	"fmt"
	"math/bits"
	"net"
	"net/netip"
	"net/url"
	"os"
	"time"

	"github.com/conneroisu/tmpltool/internal/capability"
	tterrors "github.com/conneroisu/tmpltool/internal/errors"
	"github.com/conneroisu/tmpltool/internal/execution"
	"github.com/conneroisu/tmpltool/internal/validation"
)

const portProbeTimeout = 2 * time.Second

func networkCapabilities() []capability.Capability {
	return []capability.Capability{
		&capability.Func{
			Meta: describe("get_hostname", CategoryNetwork, "Host name of the machine rendering the template", "string",
				capability.FunctionOnly, nil, `{{ get_hostname() }}`),
			Fn: func(capability.Args) (any, error) {
				name, err := os.Hostname()
				if err != nil {
					return nil, tterrors.NewDomainError("cannot determine hostname", err)
				}
				return name, nil
			},
		},
		&capability.Func{
			Meta: describe("resolve_dns", CategoryNetwork, "Resolve a host name to its IP addresses", "array",
				capability.FunctionOnly,
				args(
					capability.Arg("hostname", "string", "Host name to resolve"),
					capability.OptArg("timeout", "duration", "5s", "Lookup deadline"),
				),
				`{{ resolve_dns("example.com")|join:", " }}`,
			),
			Fn: resolveDNS,
		},
		&capability.Func{
			Meta: describe("cidr_contains", CategoryNetwork, "Report whether a CIDR block contains an IP address", "boolean",
				capability.FunctionOnly,
				args(
					capability.Arg("cidr", "string", "Network such as 10.0.0.0/8"),
					capability.Arg("ip", "string", "Address to check"),
				),
				`{{ cidr_contains("10.0.0.0/8", "10.1.2.3") }}`,
			),
			Fn: func(a capability.Args) (any, error) {
				prefix, err := prefixArg(a, "cidr")
				if err != nil {
					return nil, err
				}
				raw, err := a.String("ip")
				if err != nil {
					return nil, err
				}
				addr, err := netip.ParseAddr(raw)
				if err != nil {
					return nil, tterrors.NewArgumentError("ip", "invalid IP address "+raw)
				}
				return prefix.Contains(addr), nil
			},
		},
		&capability.Func{
			Meta: describe("cidr_network", CategoryNetwork, "Network address of a CIDR block", "string",
				capability.FunctionOnly,
				args(capability.Arg("cidr", "string", "Network such as 192.168.1.77/24")),
				`{{ cidr_network("192.168.1.77/24") }}`,
			),
			Fn: func(a capability.Args) (any, error) {
				prefix, err := prefixArg(a, "cidr")
				if err != nil {
					return nil, err
				}
				return prefix.Masked().String(), nil
			},
		},
		&capability.Func{
			Meta: describe("cidr_hosts", CategoryNetwork, "Number of usable host addresses in a CIDR block", "integer",
				capability.FunctionOnly,
				args(capability.Arg("cidr", "string", "Network such as 10.0.0.0/24")),
				`{{ cidr_hosts("10.0.0.0/24") }}`,
			),
			Fn: func(a capability.Args) (any, error) {
				prefix, err := prefixArg(a, "cidr")
				if err != nil {
					return nil, err
				}
				return cidrHosts(prefix)
			},
		},
		&capability.Func{
			Meta: describe("parse_url", CategoryNetwork, "Split a URL into its components", "object",
				capability.FunctionOnly,
				args(capability.Arg("url", "string", "URL to parse")),
				`{{ parse_url("https://example.com:8443/a?b=c").port }}`,
			),
			Fn: parseURL,
		},
		addrPredicate("is_ip", "Test whether a string is an IPv4 or IPv6 address", "10.0.0.1",
			func(netip.Addr) bool { return true }),
		addrPredicate("is_ipv4", "Test whether a string is an IPv4 address", "10.0.0.1",
			func(a netip.Addr) bool { return a.Is4() }),
		addrPredicate("is_ipv6", "Test whether a string is an IPv6 address", "::1",
			func(a netip.Addr) bool { return a.Is6() && !a.Is4In6() }),
		stringPredicate("is_cidr", CategoryNetwork, "Test whether a string is CIDR notation", "10.0.0.0/8",
			func(s string) bool {
				_, err := netip.ParsePrefix(s)
				return err == nil
			}),
		stringPredicate("is_url", CategoryNetwork, "Test whether a string is an absolute URL", "https://example.com",
			func(s string) bool {
				u, err := url.Parse(s)
				return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
			}),
		stringPredicate("is_http_url", CategoryNetwork, "Test whether a string is a safe http or https URL", "https://example.com",
			func(s string) bool {
				return validation.ValidateURL(s) == nil
			}),
		&capability.ContextPredicate{
			Meta: describe("is_port_open", CategoryNetwork, "Test whether a TCP port accepts connections", "boolean",
				capability.FunctionAndTest,
				args(capability.Arg("address", "string", "host:port to probe")),
				`{{ is_port_open("localhost:5432") }}`,
				`{% if "localhost:5432"|is_port_open %}up{% endif %}`,
			),
			Check: portOpen,
		},
	}
}

func prefixArg(a capability.Args, name string) (netip.Prefix, error) {
	raw, err := a.String(name)
	if err != nil {
		return netip.Prefix{}, err
	}
	prefix, err := netip.ParsePrefix(raw)
	if err != nil {
		return netip.Prefix{}, tterrors.NewArgumentError(name, "invalid CIDR "+raw)
	}
	return prefix, nil
}

func cidrHosts(prefix netip.Prefix) (any, error) {
	hostBits := prefix.Addr().BitLen() - prefix.Bits()
	if hostBits >= bits.UintSize-1 {
		return nil, tterrors.NewDomainError(fmt.Sprintf("%s has too many addresses to count", prefix), nil)
	}
	total := 1 << hostBits
	if prefix.Addr().Is4() && hostBits >= 2 {
		return total - 2, nil
	}
	return total, nil
}

func resolveDNS(a capability.Args) (any, error) {
	host, err := a.String("hostname")
	if err != nil {
		return nil, err
	}
	timeout := 5 * time.Second
	if _, ok := a.Value("timeout"); ok {
		if timeout, err = a.Duration("timeout"); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return nil, tterrors.NewDomainError("cannot resolve "+host, err)
	}
	return addrs, nil
}

func parseURL(a capability.Args) (any, error) {
	raw, err := a.String("url")
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, tterrors.NewArgumentError("url", err.Error())
	}

	query := make(map[string]any)
	for k, v := range u.Query() {
		if len(v) == 1 {
			query[k] = v[0]
		} else {
			query[k] = v
		}
	}

	return map[string]any{
		"scheme":   u.Scheme,
		"host":     u.Host,
		"hostname": u.Hostname(),
		"port":     u.Port(),
		"path":     u.Path,
		"query":    query,
		"fragment": u.Fragment,
		"username": u.User.Username(),
	}, nil
}

func portOpen(ctx *execution.Context, value any) (bool, error) {
	address, err := stringInput("address", value)
	if err != nil {
		return false, err
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		return false, tterrors.NewArgumentError("address", "expected host:port")
	}

	timeout := portProbeTimeout
	if d := ctx.ExecTimeout(); d < timeout {
		timeout = d
	}
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return false, nil
	}
	_ = conn.Close()
	return true, nil
}

func addrPredicate(name, description, example string, accept func(netip.Addr) bool) *capability.Predicate {
	return stringPredicate(name, CategoryNetwork, description, example, func(s string) bool {
		addr, err := netip.ParseAddr(s)
		return err == nil && accept(addr)
	})
}

// stringPredicate builds a test over a string input named "string".
// Non-string inputs are argument errors, which the test surface reports as
// false.
func stringPredicate(name, category, description, example string, accept func(string) bool) *capability.Predicate {
	return &capability.Predicate{
		Meta: describe(name, category, description, "boolean",
			capability.FunctionAndTest,
			args(capability.Arg("string", "string", "Value to test")),
			`{{ `+name+`("`+example+`") }}`,
			`{% if value|`+name+` %}yes{% endif %}`,
		),
		Check: func(value any) (bool, error) {
			s, err := stringInput("string", value)
			if err != nil {
				return false, err
			}
			return accept(s), nil
		},
	}
}
