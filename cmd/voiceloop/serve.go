package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/voiceloop/api"
	"github.com/lixenwraith/voiceloop/service"
)

func runServe(cmd *cobra.Command, args []string) error {
	if !debugLog {
		log.SetOutput(os.Stderr)
	}

	cfg, bank, err := loadConfig()
	if err != nil {
		return err
	}
	rt, err := newApp(cfg, bank, true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rt.start(ctx); err != nil {
		rt.stop()
		return err
	}
	defer rt.stop()

	svc := service.MustGet[*api.Service](rt.hub, "api")
	fmt.Fprintf(cmd.OutOrStdout(), "voiceloop API listening on http://%s/api/v1\n", svc.Addr())

	<-ctx.Done()
	fmt.Fprintln(cmd.OutOrStdout(), "shutting down")
	return nil
}
