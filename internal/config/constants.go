package config

import "time"

// Default listen ports
const (
	DefaultSSHPort   = 2222
	DefaultHTTPPort  = 8080
	DefaultMySQLPort = 3306
	DefaultRDPPort   = 3389
)

// Service tags used in observations and metrics
const (
	ServiceSSH   = "SSH"
	ServiceHTTP  = "HTTP"
	ServiceMySQL = "MySQL"
	ServiceRDP   = "RDP"
)

// Impersonated service identities
const (
	SSHBanner    = "SSH-2.0-OpenSSH_8.9p1 Ubuntu-3ubuntu0.6"
	SSHHostKey   = "ssh_host_key"
	MySQLVersion = "5.7.29-log"
	RDPServerName = "WIN-COMPUTER"

	HTTPServerHeader    = "Apache/2.4.58 (Ubuntu)"
	HTTPPoweredByHeader = "PHP/8.2.12"
)

// Session timing
const (
	AcceptTimeout     = 1 * time.Second
	AcceptBackoff     = 1 * time.Second
	HTTPResponseDelay = 300 * time.Millisecond
	MySQLReadTimeout  = 30 * time.Second
	RDPReadTimeout    = 10 * time.Second
	ShellTimeout      = 60 * time.Second
	ShellRequestWait  = 10 * time.Second
)

// LogDir is where the per-run capture log file is created.
const LogDir = "logs"
