package firewall

import (
	"reflect"
	"strings"
	"testing"
)

func defaultParams(ips ...string) Params {
	return Params{
		LANBlock:         "192.168.1.0/24",
		Interface:        "eth0",
		VirtualInterface: "tun0",
		EndpointIPs:      ips,
	}
}

func TestGenerate_NoEndpoints(t *testing.T) {
	out := Generate(defaultParams()).Render()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	if len(lines) != 13 {
		t.Fatalf("got %d lines, want 13:\n%s", len(lines), out)
	}

	want := []string{
		"*filter",
		":INPUT DROP [0:0]",
		":FORWARD DROP [0:0]",
		":OUTPUT DROP [0:0]",
		"-A INPUT -i lo -j ACCEPT",
		"-A INPUT -i eth0 -s 192.168.1.0/24 -j ACCEPT",
		"-A INPUT -i tun0 -j ACCEPT",
		"-A INPUT -m conntrack --ctstate ESTABLISHED,RELATED -j ACCEPT",
		"-A OUTPUT -o lo -j ACCEPT",
		"-A OUTPUT -o eth0 -d 192.168.1.0/24 -j ACCEPT",
		"-A OUTPUT -o tun0 -j ACCEPT",
		"-A OUTPUT -m conntrack --ctstate ESTABLISHED,RELATED -j ACCEPT",
		"COMMIT",
	}
	for i, line := range want {
		if lines[i] != line {
			t.Errorf("line %d = %q, want %q", i, lines[i], line)
		}
	}
}

func TestGenerate_AcceptCounts(t *testing.T) {
	tests := []struct {
		name      string
		endpoints []string
		perChain  int
	}{
		{"none", nil, 4},
		{"one", []string{"1.2.3.4"}, 5},
		{"three", []string{"1.2.3.4", "5.6.7.8", "9.9.9.9"}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Generate(defaultParams(tt.endpoints...))

			counts := map[Chain]int{}
			for _, r := range set.Rules {
				if r.Target != "ACCEPT" {
					t.Errorf("unexpected target %q", r.Target)
				}
				counts[r.Chain]++
			}
			if counts[ChainInput] != tt.perChain {
				t.Errorf("INPUT accepts = %d, want %d", counts[ChainInput], tt.perChain)
			}
			if counts[ChainOutput] != tt.perChain {
				t.Errorf("OUTPUT accepts = %d, want %d", counts[ChainOutput], tt.perChain)
			}
			if counts[ChainForward] != 0 {
				t.Errorf("FORWARD must have no accepts, got %d", counts[ChainForward])
			}
		})
	}
}

func TestGenerate_EndpointOrderAndPlacement(t *testing.T) {
	p := Params{
		LANBlock:         "10.0.0.0/24",
		Interface:        "eth0",
		VirtualInterface: "tun0",
		EndpointIPs:      []string{"1.2.3.4", "5.6.7.8"},
	}
	out := Generate(p).Render()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")

	// Endpoint accepts follow the virtual-interface accept directly,
	// in input order.
	vifIdx := -1
	for i, line := range lines {
		if line == "-A INPUT -i tun0 -j ACCEPT" {
			vifIdx = i
			break
		}
	}
	if vifIdx < 0 {
		t.Fatalf("missing virtual-interface INPUT accept:\n%s", out)
	}

	wantNext := []string{
		"-A INPUT -i eth0 -s 1.2.3.4/32 -p udp --sport 443 -j ACCEPT",
		"-A INPUT -i eth0 -s 5.6.7.8/32 -p udp --sport 443 -j ACCEPT",
	}
	for i, want := range wantNext {
		if lines[vifIdx+1+i] != want {
			t.Errorf("line %d = %q, want %q", vifIdx+1+i, lines[vifIdx+1+i], want)
		}
	}

	// Symmetric outbound rules.
	for _, want := range []string{
		"-A OUTPUT -o eth0 -d 1.2.3.4/32 -p udp --dport 443 -j ACCEPT",
		"-A OUTPUT -o eth0 -d 5.6.7.8/32 -p udp --dport 443 -j ACCEPT",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	p := defaultParams("8.8.8.8", "1.1.1.1")

	first := Generate(p)
	second := Generate(p)

	if !reflect.DeepEqual(first, second) {
		t.Error("identical params should yield equal rule sets")
	}
	if first.Render() != second.Render() {
		t.Error("identical params should yield byte-identical output")
	}
}

func TestRule_String(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want string
	}{
		{
			"loopback",
			Rule{Chain: ChainInput, InInterface: "lo", Target: "ACCEPT"},
			"-A INPUT -i lo -j ACCEPT",
		},
		{
			"endpoint outbound",
			Rule{Chain: ChainOutput, OutInterface: "eth0", Destination: "1.2.3.4/32", Protocol: "udp", DestPort: 443, Target: "ACCEPT"},
			"-A OUTPUT -o eth0 -d 1.2.3.4/32 -p udp --dport 443 -j ACCEPT",
		},
		{
			"conntrack",
			Rule{Chain: ChainInput, CtStates: "ESTABLISHED,RELATED", Target: "ACCEPT"},
			"-A INPUT -m conntrack --ctstate ESTABLISHED,RELATED -j ACCEPT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.String(); got != tt.want {
				t.Errorf("Rule.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_Framing(t *testing.T) {
	out := RuleSet{}.Render()

	if !strings.HasPrefix(out, "*filter\n") {
		t.Error("output should start with *filter")
	}
	if !strings.HasSuffix(out, "COMMIT\n") {
		t.Error("output should end with COMMIT and a newline")
	}
	for _, policy := range []string{":INPUT DROP [0:0]", ":FORWARD DROP [0:0]", ":OUTPUT DROP [0:0]"} {
		if !strings.Contains(out, policy) {
			t.Errorf("output missing policy line %q", policy)
		}
	}
}
