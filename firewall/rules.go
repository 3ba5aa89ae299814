// Package firewall generates the packet-filter rule set that confines
// all traffic to the tunnel, the local network, and loopback.
//
// Rule generation is a pure function of its inputs: identical
// parameters, including endpoint ordering, always yield byte-identical
// output. Rules are kept as structured data and rendered to
// iptables-save text (filter table only, *filter ... COMMIT framing)
// at the boundary, so tests can assert on rule sets without string
// diffing.
package firewall

import (
	"fmt"
	"strings"
)

// Chain names in the filter table. No other table or chain is touched.
type Chain string

const (
	ChainInput   Chain = "INPUT"
	ChainForward Chain = "FORWARD"
	ChainOutput  Chain = "OUTPUT"
)

// Rule is one append directive for a filter-table chain.
type Rule struct {
	Chain        Chain
	InInterface  string
	OutInterface string
	Source       string
	Destination  string
	Protocol     string
	SourcePort   int
	DestPort     int
	CtStates     string
	Target       string
}

// String renders the rule as an iptables-save append line.
func (r Rule) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "-A %s", r.Chain)
	if r.InInterface != "" {
		fmt.Fprintf(&b, " -i %s", r.InInterface)
	}
	if r.OutInterface != "" {
		fmt.Fprintf(&b, " -o %s", r.OutInterface)
	}
	if r.Source != "" {
		fmt.Fprintf(&b, " -s %s", r.Source)
	}
	if r.Destination != "" {
		fmt.Fprintf(&b, " -d %s", r.Destination)
	}
	if r.Protocol != "" {
		fmt.Fprintf(&b, " -p %s", r.Protocol)
	}
	if r.SourcePort != 0 {
		fmt.Fprintf(&b, " --sport %d", r.SourcePort)
	}
	if r.DestPort != 0 {
		fmt.Fprintf(&b, " --dport %d", r.DestPort)
	}
	if r.CtStates != "" {
		fmt.Fprintf(&b, " -m conntrack --ctstate %s", r.CtStates)
	}
	fmt.Fprintf(&b, " -j %s", r.Target)
	return b.String()
}

// RuleSet is an ordered sequence of rules under drop-all policies for
// INPUT, FORWARD, and OUTPUT. FORWARD gets no accept rules: the tool
// targets end hosts, not routers.
type RuleSet struct {
	Rules []Rule
}

// Render produces the iptables-save text for the set.
func (rs RuleSet) Render() string {
	lines := make([]string, 0, len(rs.Rules)+5)
	lines = append(lines,
		"*filter",
		":INPUT DROP [0:0]",
		":FORWARD DROP [0:0]",
		":OUTPUT DROP [0:0]",
	)
	for _, r := range rs.Rules {
		lines = append(lines, r.String())
	}
	lines = append(lines, "COMMIT")
	return strings.Join(lines, "\n") + "\n"
}

// Params are the inputs to rule generation.
type Params struct {
	// LANBlock is the local network in CIDR notation.
	LANBlock string
	// Interface is the physical interface.
	Interface string
	// VirtualInterface is the tunnel interface.
	VirtualInterface string
	// EndpointIPs are the tunnel endpoints, one accept per IP emitted
	// in this exact order.
	EndpointIPs []string
}

// Generate builds the rule set: for INPUT and then OUTPUT, accept
// loopback, the LAN on the physical interface, the virtual interface,
// UDP/443 to or from each endpoint on the physical interface, and
// finally established traffic.
func Generate(p Params) RuleSet {
	rules := make([]Rule, 0, 8+2*len(p.EndpointIPs))
	rules = append(rules, chainRules(ChainInput, p)...)
	rules = append(rules, chainRules(ChainOutput, p)...)
	return RuleSet{Rules: rules}
}

func chainRules(chain Chain, p Params) []Rule {
	inbound := chain == ChainInput

	// accept helper oriented by chain direction: INPUT matches the
	// input interface and source, OUTPUT the output interface and
	// destination.
	oriented := func(iface, addr string) Rule {
		r := Rule{Chain: chain, Target: "ACCEPT"}
		if inbound {
			r.InInterface = iface
			r.Source = addr
		} else {
			r.OutInterface = iface
			r.Destination = addr
		}
		return r
	}

	rules := []Rule{
		oriented("lo", ""),
		oriented(p.Interface, p.LANBlock),
		oriented(p.VirtualInterface, ""),
	}

	for _, ip := range p.EndpointIPs {
		r := oriented(p.Interface, ip+"/32")
		r.Protocol = "udp"
		if inbound {
			r.SourcePort = 443
		} else {
			r.DestPort = 443
		}
		rules = append(rules, r)
	}

	rules = append(rules, Rule{
		Chain:    chain,
		CtStates: "ESTABLISHED,RELATED",
		Target:   "ACCEPT",
	})
	return rules
}
