// Command ddelivery-lmtpd receives bundles addressed to the local inbox
// agent over DTN and hands each to a local LMTP server (or, supplementally,
// a Maildir tree). It is the Go counterpart to original_source's
// main_receiver.rs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/archipel-network/ddelivery-go/internal/config"
	"github.com/archipel-network/ddelivery-go/internal/dtn"
	"github.com/archipel-network/ddelivery-go/internal/gplog"
	"github.com/archipel-network/ddelivery-go/internal/receiver"
)

func main() {
	if err := run(); err != nil {
		gplog.Fatalf("ddelivery-lmtpd: %v", err)
	}
}

func run() error {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "ddelivery-lmtpd",
		Short: "Receive DTN bundles and deliver them over LMTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath, logLevel)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a JSON config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	return cmd.Execute()
}

func serve(configPath, logLevel string) error {
	if err := gplog.Init(logLevel); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	agent, err := dtn.Connect(cfg.AAPSocketPath, cfg.InboxAgentID)
	if err != nil {
		return err
	}
	defer agent.Close()

	var deliverer receiver.Deliverer
	if cfg.MaildirRoot != "" {
		deliverer = &receiver.MaildirDeliverer{Root: cfg.MaildirRoot}
	} else {
		deliverer = &receiver.LMTPDeliverer{Addr: cfg.LMTPAddr, LocalName: cfg.Domain}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	gplog.Infof("ddelivery-lmtpd receiving as %s", agent.NodeEID())

	recv := receiver.New(agent, deliverer, agent.NodeDomain())
	recv.Run(ctx)
	return nil
}
