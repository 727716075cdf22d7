package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"lurefield/internal/config"
	"lurefield/internal/dashboard"
	"lurefield/internal/exporter"
	"lurefield/internal/honeypot"
	"lurefield/internal/logger"
	"lurefield/internal/metrics"
)

func main() {
	cfg := parseFlags()

	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprintln(os.Stderr, "Argument errors:")
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", err)
		}
		fmt.Fprintln(os.Stderr, "\nUse --help for usage information.")
		os.Exit(1)
	}

	printSummary(cfg)

	sink := logger.New()
	sink.OpenLogFile()
	defer sink.Close()

	m := metrics.New()
	sink.AttachMetrics(m)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(cfg.MetricsAddr); err != nil {
				sink.Error("System", fmt.Sprintf("Metrics endpoint stopped: %v", err))
			}
		}()
	}

	if cfg.ELKAddress != "" {
		exp, err := exporter.NewELKExporter(config.DefaultELKConfiguration(cfg.ELKAddress))
		if err != nil {
			sink.Error("System", fmt.Sprintf("ELK export disabled: %v", err))
		} else {
			sink.AttachExporter(exp)
			defer exp.Close()
		}
	}

	var feed chan string
	if cfg.Dashboard {
		feed = make(chan string, 1000)
		sink.AttachDashboard(feed)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hp := honeypot.New(cfg, sink, m)
	if err := hp.Start(ctx); err != nil {
		sink.Error("System", err.Error())
		os.Exit(1)
	}

	if cfg.Dashboard {
		if err := dashboard.New(cfg.Services(), feed).Start(ctx); err != nil {
			sink.Error("System", fmt.Sprintf("Dashboard failed: %v", err))
			<-ctx.Done()
		}
		stop()
	} else {
		<-ctx.Done()
	}

	sink.Info("System", "Honeypot system shutdown requested by user")
	hp.Wait()
}

func parseFlags() *config.Config {
	cfg := &config.Config{}

	flag.BoolVar(&cfg.SSH, "ssh", false, "Start SSH honeypot")
	flag.BoolVar(&cfg.HTTP, "http", false, "Start HTTP honeypot (WordPress)")
	flag.BoolVar(&cfg.MySQL, "mysql", false, "Start MySQL database honeypot")
	flag.BoolVar(&cfg.RDP, "rdp", false, "Start RDP honeypot")
	all := flag.Bool("all", false, "Start all honeypot services")

	flag.IntVar(&cfg.SSHPort, "ssh-port", config.DefaultSSHPort, "Port for SSH honeypot")
	flag.IntVar(&cfg.HTTPPort, "http-port", config.DefaultHTTPPort, "Port for HTTP honeypot")
	flag.IntVar(&cfg.MySQLPort, "mysql-port", config.DefaultMySQLPort, "Port for MySQL honeypot")
	flag.IntVar(&cfg.RDPPort, "rdp-port", config.DefaultRDPPort, "Port for RDP honeypot")

	flag.BoolVar(&cfg.StrictProto41, "mysql-strict-proto41", false,
		"Reject MySQL clients that do not negotiate CLIENT_PROTOCOL_41")
	flag.BoolVar(&cfg.Dashboard, "dashboard", false, "Show the live terminal dashboard")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", "",
		"Operator-side address for Prometheus metrics (e.g. 127.0.0.1:9100)")
	flag.StringVar(&cfg.ELKAddress, "elk-address", "",
		"Elasticsearch address for observation export (e.g. http://localhost:9200)")

	flag.Parse()

	if *all {
		cfg.EnableAll()
	}
	return cfg
}

func printSummary(cfg *config.Config) {
	fmt.Println("Configuration:")
	if cfg.SSH {
		fmt.Printf("  - SSH port: %d\n", cfg.SSHPort)
	}
	if cfg.HTTP {
		fmt.Printf("  - HTTP port: %d (fake service: WordPress)\n", cfg.HTTPPort)
	}
	if cfg.MySQL {
		fmt.Printf("  - MySQL port: %d (version: %s)\n", cfg.MySQLPort, config.MySQLVersion)
	}
	if cfg.RDP {
		fmt.Printf("  - RDP port: %d (server: %s)\n", cfg.RDPPort, config.RDPServerName)
	}
	fmt.Printf("  - Log file: %s/honeypot_logs_<timestamp>.log\n", config.LogDir)
	fmt.Println("\nStarting honeypot system. Press Ctrl+C to stop.")
}
