package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/dotcommander/awsknow/internal/log"
	"github.com/dotcommander/awsknow/internal/server"
)

func newServeCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the knowledge endpoint over HTTP",
		Args:    cobra.NoArgs,
		Example: "Serve the knowledge endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			if err := rt.cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return rt.serve(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&rt.cfg.Addr, "addr", "a", rt.cfg.Addr, help("addr"))
	flags.StringVar(&rt.cfg.OnStartupError, "on-startup-error", rt.cfg.OnStartupError, help("on-startup-error"))
	flags.StringVarP(&rt.cfg.ToolSource, "tool-source", "t", rt.cfg.ToolSource, help("tool-source"))
	flags.StringSliceVar(&rt.cfg.CORSOrigins, "cors-origins", rt.cfg.CORSOrigins, help("cors-origins"))
	flags.Var(newDurationFlag(rt.cfg.ShutdownTimeout, &rt.cfg.ShutdownTimeout), "shutdown-timeout", help("shutdown-timeout"))
	flags.Var(newDurationFlag(rt.cfg.ReadHeaderTimeout, &rt.cfg.ReadHeaderTimeout), "read-header-timeout", help("read-header-timeout"))
	addModelFlags(flags, &rt.cfg)
	flags.SortFlags = false
	return cmd
}

func (rt *runtime) serve(ctx context.Context) error {
	boot, err := rt.startup(ctx, configuredToolSource(rt.cfg), rt.cfg.OnStartupError)
	if err != nil {
		return err
	}

	srv := rt.newServer(boot)
	srv.OnShutdown(boot.Close)
	return srv.ListenAndServe(ctx)
}

func (rt *runtime) newServer(boot *bootstrap) *server.Server {
	if log.Level() != log.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	info := server.Info{
		Service:     "awsknow",
		Description: "Answers AWS questions with a hosted model and the tools of an MCP knowledge server.",
		Version:     rt.build.Version,
		PoweredBy:   poweredBy(boot),
		Model:       boot.modelName(),
		Tools:       boot.toolset.Names(),
	}
	return server.New(server.NewRuntime(boot.agents(), info), server.Options{
		Addr:              rt.cfg.Addr,
		CORSOrigins:       rt.cfg.CORSOrigins,
		ReadHeaderTimeout: rt.cfg.ReadHeaderTimeout,
		ShutdownTimeout:   rt.cfg.ShutdownTimeout,
	})
}

func poweredBy(boot *bootstrap) string {
	provider := boot.cfg.Model.Provider
	if provider == "bedrock" {
		provider = "Amazon Bedrock"
	}
	if boot.session == nil {
		return provider
	}
	return provider + " + MCP (" + boot.session.Name() + ")"
}
