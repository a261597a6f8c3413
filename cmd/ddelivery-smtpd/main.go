// Command ddelivery-smtpd accepts SMTP submissions on a local port and
// forwards each completed message to the DTN daemon as one bundle per
// recipient. It is the Go counterpart to original_source's
// main_sender.rs.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/archipel-network/ddelivery-go/internal/config"
	"github.com/archipel-network/ddelivery-go/internal/dtn"
	"github.com/archipel-network/ddelivery-go/internal/gplog"
	"github.com/archipel-network/ddelivery-go/internal/sink"
	"github.com/archipel-network/ddelivery-go/smtp"
)

func main() {
	if err := run(); err != nil {
		gplog.Fatalf("ddelivery-smtpd: %v", err)
	}
}

func run() error {
	var (
		configPath string
		bind       string
		domain     string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "ddelivery-smtpd",
		Short: "Accept SMTP submissions and forward them over DTN",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath, bind, domain, logLevel)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON config file")
	cmd.Flags().StringVar(&bind, "bind", "", "override the SMTP listen address")
	cmd.Flags().StringVar(&domain, "domain", "", "override the advertised domain")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd.Execute()
}

func serve(configPath, bindOverride, domainOverride, logLevel string) error {
	if err := gplog.Init(logLevel); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if bindOverride != "" {
		cfg.SMTPBind = bindOverride
	}
	if domainOverride != "" {
		cfg.Domain = domainOverride
	}

	agent, err := dtn.Connect(cfg.AAPSocketPath, cfg.OutboxAgentID)
	if err != nil {
		return err
	}
	defer agent.Close()

	dispatcher := sink.NewDispatcher(&sink.DTNSink{Agent: agent, InboxAgentID: cfg.InboxAgentID}, cfg.SinkQueueSize)

	ln, err := net.Listen("tcp", cfg.SMTPBind)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	gplog.Infof("ddelivery-smtpd listening on %s as %s", cfg.SMTPBind, cfg.Domain)

	srv := smtp.NewServer(cfg.Domain, dispatcher)
	if err := srv.Serve(ctx, ln); err != nil {
		return err
	}

	dispatcher.Stop(context.Background())
	return nil
}
