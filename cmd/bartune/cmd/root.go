package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/bartune/internal/config"
	"github.com/MeKo-Tech/bartune/internal/version"
)

// WaitPrompt is printed before waiting for a key press.
const WaitPrompt = "Press any key to quit..."

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"verbose":                "verbose",
	"log-level":              "log_level",
	"wait":                   "wait_for_key",
	"format":                 "output.format",
	"output":                 "output.file",
	"metrics-textfile":       "metrics.textfile",
	"license-server":         "license.main_server_url",
	"license-standby-server": "license.standby_server_url",
	"organization-id":        "license.organization_id",
	"handshake-code":         "license.handshake_code",
	"device-id":              "license.device_id",
	"license-timeout":        "license.timeout",
	"strategies":             "decode.strategies",
	"template":               "decode.template",
	"conflict-mode":          "decode.conflict_mode",
	"profile":                "decode.profile",
	"timed":                  "decode.timed",
	"pdf-pages":              "decode.pdf_pages",
}

// app holds the state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	in      io.Reader
	root    *cobra.Command
}

func newApp(in io.Reader) *app {
	a := &app{v: viper.New(), in: in, logger: slog.Default()}
	a.root = a.newRootCommand()
	return a
}

// NewRootCommand returns a fresh command tree. Each tree owns its own
// configuration state.
func NewRootCommand() *cobra.Command {
	return newApp(os.Stdin).root
}

func (a *app) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bartune",
		Short: "Tune a barcode decode engine for accuracy or speed",
		Long: `bartune configures a barcode decode engine for one of two opposing goals
and prints the decoded results.

Each pipeline verifies the license, applies runtime settings either directly
or through a parameter template, decodes the image and reports the result.

Examples:
  bartune accuracy AllSupportedBarcodeTypes.png
  bartune speed --timed=false label.jpg
  bartune speed --strategies template --template MyTemplate.json scan.pdf
  bartune accuracy --format xlsx --output results.xlsx sample.tif`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/bartune, /etc/bartune)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.Bool("wait", false, "wait for a key press before exiting")
	pf.StringP("format", "f", "text", "report format: text, json, csv or xlsx")
	pf.StringP("output", "o", "", "write the report to a file instead of stdout")
	pf.String("metrics-textfile", "", "write decode metrics to a Prometheus textfile")
	pf.String("license-server", "", "main license server URL")
	pf.String("license-standby-server", "", "standby license server URL")
	pf.String("organization-id", "", "license organization id (default is the public trial)")
	pf.String("handshake-code", "", "license handshake code")
	pf.String("device-id", "", "device id sent to the license server (default is random)")
	pf.Int("license-timeout", 0, "license request timeout in seconds")
	bindFlags(a.v, pf)

	root.AddCommand(
		a.newDecodeCommand(accuracyPipeline),
		a.newDecodeCommand(speedPipeline),
		newTemplatesCommand(),
		newVersionCommand(),
	)
	return root
}

// bindFlags binds every known flag of fs to its configuration key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = v.BindPFlag(key, f)
		}
	})
}

// initConfig binds the running command's flags, loads the configuration
// and sets up structured logging on stderr.
func (a *app) initConfig(cmd *cobra.Command) error {
	bindFlags(a.v, cmd.Flags())

	cfg, err := config.NewLoaderWithViper(a.v).LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel(cfg),
	}))
	slog.SetDefault(a.logger)
	return nil
}

func logLevel(cfg *config.Config) slog.Level {
	if cfg.Verbose {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// execute runs the command tree and is the single place errors surface:
// the message is printed to the command output and the process still ends
// normally, after the optional key-press prompt.
func (a *app) execute(ctx context.Context) {
	err := a.root.ExecuteContext(ctx)
	out := a.root.OutOrStdout()
	if err != nil {
		_, _ = fmt.Fprintln(out, err)
	}
	if a.v.GetBool("wait_for_key") {
		waitForKey(out, a.in)
	}
}

func waitForKey(out io.Writer, in io.Reader) {
	_, _ = fmt.Fprintln(out, WaitPrompt)
	if in == nil {
		return
	}
	_, _ = bufio.NewReader(in).ReadByte()
}

// Execute runs bartune with the process arguments.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	newApp(os.Stdin).execute(ctx)
}
