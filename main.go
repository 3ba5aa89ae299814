// vpnkeeper manages the lifecycle of a single OpenVPN tunnel: fetch a
// profile from the provider, bring the tunnel up and down, and render
// the firewall rules that confine traffic to it.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dcampos/vpnkeeper/cli"
	"github.com/dcampos/vpnkeeper/common"
	"github.com/dcampos/vpnkeeper/config"
	"github.com/dcampos/vpnkeeper/history"
	"github.com/dcampos/vpnkeeper/vpn"
)

const version = "1.2.0"

var (
	flagVerbose    bool
	flagLogFile    bool
	flagProfileDir string
	flagStateFile  string
	flagConnect    bool
	flagLocal      bool
	flagLAN        string
	flagInterface  string
	flagVIF        string
	flagCount      int
	flagUsername   string
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		common.CloseLogger()
		os.Exit(common.ExitCode(err))
	}
	common.CloseLogger()
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var (
		app          *cli.App
		closeHistory = func() {}
	)
	defer func() { closeHistory() }()

	root := &cobra.Command{
		Use:           "vpnkeeper",
		Short:         "Manage an OpenVPN tunnel and its firewall rules",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		// Flag overrides are only known once cobra has parsed them, so
		// the app is assembled here rather than in main.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := common.LevelInfo
			if flagVerbose {
				level = common.LevelDebug
			}
			if err := common.InitLogger(common.LogConfig{Level: level, EnableFile: flagLogFile}); err != nil {
				return err
			}
			app, closeHistory, err = newApp(cfg)
			return err
		},
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&flagLogFile, "log-file", false, "also log to a rotating file under the config directory")
	root.PersistentFlags().StringVar(&flagProfileDir, "dir", "", "profile directory (overrides config)")
	root.PersistentFlags().StringVar(&flagStateFile, "state-file", "", "daemon PID file (overrides config)")

	setup := &cobra.Command{
		Use:   "setup NAME",
		Short: "Fetch and store the profile for a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Setup(cmd.Context(), args[0], flagConnect)
		},
	}
	setup.Flags().BoolVarP(&flagConnect, "connect", "c", false, "connect after setup")

	connect := &cobra.Command{
		Use:   "connect NAME",
		Short: "Bring up the tunnel for a configured server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Connect(cmd.Context(), args[0])
		},
	}

	disconnect := &cobra.Command{
		Use:   "disconnect",
		Short: "Tear down the running tunnel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Disconnect(cmd.Context())
		},
	}

	remove := &cobra.Command{
		Use:   "remove NAME",
		Short: "Delete the stored profile for a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Remove(args[0])
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List servers offered by the provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagLocal {
				return app.ListLocal()
			}
			return app.ListRemote(cmd.Context())
		},
	}
	list.Flags().BoolVarP(&flagLocal, "local", "l", false, "list locally configured servers instead")

	status := &cobra.Command{
		Use:   "status [NAME]",
		Short: "Show the tunnel state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return app.Status(name)
		},
	}

	rules := &cobra.Command{
		Use:   "rules",
		Short: "Print firewall rules for the configured servers",
		Long: "Print an iptables-restore rule set that drops everything except " +
			"loopback, the local network, the tunnel interface, and the " +
			"configured server endpoints.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lan := cfg.LANBlock
			if flagLAN != "" {
				lan = flagLAN
			}
			iface := cfg.Interface
			if flagInterface != "" {
				iface = flagInterface
			}
			vif := cfg.VirtualInterface
			if flagVIF != "" {
				vif = flagVIF
			}
			return app.Rules(lan, iface, vif)
		},
	}
	rules.Flags().StringVar(&flagLAN, "lan", "", "local network CIDR (overrides config)")
	rules.Flags().StringVar(&flagInterface, "if", "", "physical interface (overrides config)")
	rules.Flags().StringVar(&flagVIF, "vif", "", "tunnel interface (overrides config)")

	hist := &cobra.Command{
		Use:   "history",
		Short: "Show recent lifecycle transitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.History(flagCount)
		},
	}
	hist.Flags().IntVarP(&flagCount, "count", "n", 20, "number of transitions to show")

	login := &cobra.Command{
		Use:   "login",
		Short: "Store provider credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Login(flagUsername)
		},
	}
	login.Flags().StringVarP(&flagUsername, "user", "u", "", "provider username")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Delete stored provider credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Logout()
		},
	}

	root.AddCommand(setup, connect, disconnect, remove, list, status, rules, hist, login, logout)
	return root.Execute()
}

// newApp assembles the CLI over its collaborators, applying flag
// overrides on top of the loaded configuration.
func newApp(cfg *config.Config) (*cli.App, func(), error) {
	profileDir := cfg.ProfileDir
	if flagProfileDir != "" {
		profileDir = flagProfileDir
	}
	stateFile := cfg.StateFile
	if flagStateFile != "" {
		stateFile = flagStateFile
	}

	provider, err := vpn.NewHTTPProvider(cfg.ProviderURL, nil)
	if err != nil {
		return nil, nil, err
	}

	manager := vpn.NewManager(
		vpn.NewProfileStore(profileDir),
		vpn.NewStateStore(stateFile),
		vpn.NewOpenVPNLauncher(),
		provider,
	)
	app := cli.New(manager)

	closeHistory := func() {}
	if dataDir, err := common.GetDataDir(); err == nil {
		if h, err := history.Open(filepath.Join(dataDir, common.HistoryFileName)); err == nil {
			app.SetHistory(h)
			closeHistory = func() { h.Close() }
		} else {
			common.LogWarn("history unavailable: %v", err)
		}
	}

	return app, closeHistory, nil
}
