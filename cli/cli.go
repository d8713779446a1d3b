package cli

import (
	"context"
	goerrors "errors"
	"io"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/twitter/ice/common/errors"
	"github.com/twitter/ice/config/jsonconfig"
	"github.com/twitter/ice/demo"
	"github.com/twitter/ice/ice"
)

// Environment variables consulted when the matching flag is not given.
// A .env file in the working directory (or --env_file) may set them.
const (
	ChainConfigEnv = "ICE_CHAIN_CONFIG"
	LogLevelEnv    = "ICE_LOG_LEVEL"
	AddrEnv        = "ICE_ADDR"
)

// icectl interface that includes CLI handling
type CLIClient interface {
	Exec() error
}

// Implements CLIClient
type simpleCLIClient struct {
	rootCmd *cobra.Command
	out     io.Writer
	// Parent of the contexts demo and serve run under.
	ctx context.Context

	envFile  string
	logLevel string
	// Reads named chain documents, os.ReadFile unless overridden in tests.
	asset func(string) ([]byte, error)
}

func (c *simpleCLIClient) Exec() error {
	return c.rootCmd.Execute()
}

// NewSimpleCLIClient builds icectl, writing command output to out.
func NewSimpleCLIClient(out io.Writer) CLIClient {
	return newCLIClient(out, os.ReadFile)
}

func newCLIClient(out io.Writer, asset func(string) ([]byte, error)) *simpleCLIClient {
	c := &simpleCLIClient{out: out, asset: asset, ctx: context.Background()}

	c.rootCmd = &cobra.Command{
		Use:               "icectl",
		Short:             "icectl validates, draws and runs ice scope chains",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	c.rootCmd.SetOutput(out)
	c.rootCmd.PersistentFlags().StringVar(&c.envFile, "env_file", ".env", "file of KEY=value defaults, ignored if missing")
	c.rootCmd.PersistentFlags().StringVar(&c.logLevel, "log_level", "", "Log everything at this level and above (error|info|debug)")

	c.addCmd(&validateCmd{})
	c.addCmd(&graphCmd{})
	c.addCmd(&demoCmd{})
	c.addCmd(&serveCmd{})

	return c
}

func (c *simpleCLIClient) setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(c.envFile); err != nil {
		log.Debugf("no env file %s: %v", c.envFile, err)
	}
	level := c.logLevel
	if level == "" {
		level = os.Getenv(LogLevelEnv)
	}
	if level == "" {
		return nil
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	return nil
}

// configText finds the chain document: the first arg if given, else $ICE_CHAIN_CONFIG.
// An empty document means the demo defaults.
func (c *simpleCLIClient) configText(args []string) ([]byte, error) {
	flag := os.Getenv(ChainConfigEnv)
	if len(args) > 0 {
		flag = args[0]
	}
	text, err := jsonconfig.GetConfigText(flag, c.asset)
	return text, errors.WithExitCode(err, errors.ReadConfigFailureExitCode)
}

// chain parses and validates the chain document.
func (c *simpleCLIClient) chain(args []string) (*ice.ScopeChain, error) {
	text, err := c.configText(args)
	if err != nil {
		return nil, err
	}
	cc, err := demo.Schema().Parse(text)
	if err != nil {
		return nil, errors.WithExitCode(err, errors.ParseConfigFailureExitCode)
	}
	chain, err := cc.Chain()
	return chain, errors.WithExitCode(err, errors.InvalidChainExitCode)
}

// exitCode picks the exit status for a failure after the chain was built.
func exitCode(err error, fallback errors.ExitCode) error {
	if errors.ExitCodeOf(err) != errors.GenericFailureExitCode {
		return err
	}
	var inj *ice.InjectionError
	if goerrors.As(err, &inj) {
		return errors.WithExitCode(err, errors.ResolveFailureExitCode)
	}
	var asyncErr *ice.AsyncDependencyError
	if goerrors.As(err, &asyncErr) {
		return errors.WithExitCode(err, errors.InvalidChainExitCode)
	}
	return errors.WithExitCode(err, fallback)
}

func (c *simpleCLIClient) addCmd(cmd command) {
	cobraCmd := cmd.registerFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.run(c, innerCmd, args)
	}
	c.rootCmd.AddCommand(cobraCmd)
}

type command interface {
	registerFlags() *cobra.Command
	run(cl *simpleCLIClient, cmd *cobra.Command, args []string) error
}
