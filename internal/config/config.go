package config

import "fmt"

// Config selects which impersonators run and on which ports.
// Built once at startup from flags; never mutated afterwards.
type Config struct {
	SSH   bool
	HTTP  bool
	MySQL bool
	RDP   bool

	SSHPort   int
	HTTPPort  int
	MySQLPort int
	RDPPort   int

	// StrictProto41 rejects MySQL clients that do not negotiate
	// CLIENT_PROTOCOL_41. Off by default: scanners frequently omit it.
	StrictProto41 bool

	// Optional operator surfaces
	Dashboard   bool
	MetricsAddr string
	ELKAddress  string
}

// EnableAll turns on every impersonator.
func (c *Config) EnableAll() {
	c.SSH = true
	c.HTTP = true
	c.MySQL = true
	c.RDP = true
}

// Validate returns every configuration error at once so the operator can fix
// them in a single pass.
func (c *Config) Validate() []error {
	var errs []error

	if !c.SSH && !c.HTTP && !c.MySQL && !c.RDP {
		errs = append(errs, fmt.Errorf("at least one service is required: --ssh, --http, --mysql, --rdp, or --all"))
	}

	ports := []struct {
		name string
		port int
	}{
		{"ssh-port", c.SSHPort},
		{"http-port", c.HTTPPort},
		{"mysql-port", c.MySQLPort},
		{"rdp-port", c.RDPPort},
	}
	for _, p := range ports {
		if p.port < 1 || p.port > 65535 {
			errs = append(errs, fmt.Errorf("invalid %s: %d, must be between 1-65535", p.name, p.port))
		}
	}

	return errs
}

// Services lists the enabled service tags with their ports.
func (c *Config) Services() map[string]int {
	svcs := make(map[string]int)
	if c.SSH {
		svcs[ServiceSSH] = c.SSHPort
	}
	if c.HTTP {
		svcs[ServiceHTTP] = c.HTTPPort
	}
	if c.MySQL {
		svcs[ServiceMySQL] = c.MySQLPort
	}
	if c.RDP {
		svcs[ServiceRDP] = c.RDPPort
	}
	return svcs
}

// ELKConfiguration configures the optional Elasticsearch observation export.
type ELKConfiguration struct {
	Enabled       bool
	Addresses     []string
	Index         string
	Username      string
	Password      string
	UseTLS        bool
	SkipVerify    bool
	BatchSize     int
	FlushInterval int // seconds
}

// DefaultELKConfiguration returns the export defaults for a given address.
func DefaultELKConfiguration(addr string) ELKConfiguration {
	return ELKConfiguration{
		Enabled:       addr != "",
		Addresses:     []string{addr},
		Index:         "lurefield-observations",
		BatchSize:     50,
		FlushInterval: 5,
	}
}
