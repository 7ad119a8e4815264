package cli

import (
	stdcontext "context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/forkexec/internal/cliutil"
	"github.com/Paintersrp/forkexec/internal/config"
	"github.com/Paintersrp/forkexec/internal/metrics"
	"github.com/Paintersrp/forkexec/internal/process"
)

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	ctx := &context{loadConfig: config.Load}

	root := &cobra.Command{
		Use:   "forkexec",
		Short: "Duplicate this process, replace the duplicate with ls, and wait for it",
		Long: `forkexec starts a copy of itself. The copy replaces its image with the
directory listing utility while the original waits for it to finish.

Configuration is read from the YAML file named by FORKEXEC_CONFIG and from the
FORKEXEC_PROGRAM, FORKEXEC_LOG_LEVEL, FORKEXEC_LOG_FORMAT and
FORKEXEC_METRICS_FILE environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.run(cmd)
		},
	}

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(process.ExitCode(err))
	}
}

type context struct {
	loadConfig func() (*config.Config, error)
	// spawner overrides the default duplicate settings.
	spawner *process.Spawner
}

func (c *context) run(cmd *cobra.Command) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	logger, err := cliutil.NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	var spawner process.Spawner
	if c.spawner != nil {
		spawner = *c.spawner
	}
	if spawner.Dir == "" {
		spawner.Dir = cfg.Workdir
	}
	if cfg.Source != "" {
		// The duplicate reloads the config from its own working directory.
		spawner.Env = append(append([]string(nil), spawner.Env...), config.EnvConfigFile+"="+cfg.Source)
	}

	runErr := process.Run(cmd.Context(), process.Options{
		Spawner: &spawner,
		Program: cfg.Program,
		Args:    cfg.Args,
		Stdout:  cmd.OutOrStdout(),
		Logger:  logger,
	})

	if cfg.Metrics.File != "" && process.CurrentRole() == process.RoleParent {
		if err := metrics.WriteTextfile(cfg.Metrics.File); err != nil {
			logger.WithError(err).Warn("write metrics textfile")
		}
	}
	return runErr
}
