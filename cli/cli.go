// Package cli provides the command-line surface for vpnkeeper. It
// translates terminal invocations into lifecycle operations and maps
// their errors to process exit codes, so the tool can be scripted.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/dcampos/vpnkeeper/common"
	"github.com/dcampos/vpnkeeper/history"
	"github.com/dcampos/vpnkeeper/keyring"
	"github.com/dcampos/vpnkeeper/vpn"
)

// App wires the lifecycle manager to the terminal.
type App struct {
	manager *vpn.Manager
	history *history.Store
}

// New creates an App over the given manager.
func New(manager *vpn.Manager) *App {
	return &App{manager: manager}
}

// SetHistory attaches the transition log used by the history command.
func (a *App) SetHistory(h *history.Store) {
	a.history = h
	a.manager.SetHistory(h)
}

// credentials loads the stored provider credentials, pointing the user
// at the login command when none are stored yet.
func (a *App) credentials() (vpn.Credentials, error) {
	username, password, err := keyring.LoadCredentials()
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return vpn.Credentials{}, fmt.Errorf("no stored credentials, run 'vpnkeeper login' first: %w", err)
		}
		return vpn.Credentials{}, err
	}
	return vpn.Credentials{Username: username, Password: password}, nil
}

// Setup fetches and stores the profile for the named server. When
// connectAfter is set the tunnel is brought up immediately.
func (a *App) Setup(ctx context.Context, name string, connectAfter bool) error {
	creds, err := a.credentials()
	if err != nil {
		return err
	}

	fmt.Printf("Setting up %s...\n", common.NormalizeServerName(name))
	if err := a.manager.Setup(ctx, name, creds, connectAfter); err != nil {
		return err
	}

	if connectAfter {
		fmt.Println("Profile stored, tunnel launched.")
	} else {
		fmt.Println("Profile stored.")
	}
	return nil
}

// Connect brings up the tunnel for the named server.
func (a *App) Connect(ctx context.Context, name string) error {
	fmt.Printf("Connecting to %s...\n", common.NormalizeServerName(name))
	if err := a.manager.Connect(ctx, name); err != nil {
		return err
	}
	fmt.Println("Tunnel launched.")
	return nil
}

// Disconnect tears down the running tunnel, if any. The manager owns
// the privilege check and the state read, in that order.
func (a *App) Disconnect(ctx context.Context) error {
	stopped, err := a.manager.Disconnect(ctx)
	if err != nil {
		return err
	}
	if !stopped {
		fmt.Println("No tunnel running.")
		return nil
	}
	fmt.Println("Disconnected.")
	return nil
}

// Remove deletes the stored profile for the named server.
func (a *App) Remove(name string) error {
	if err := a.manager.Remove(name); err != nil {
		return err
	}
	fmt.Printf("Removed %s.\n", common.NormalizeServerName(name))
	return nil
}

// ListLocal prints the locally configured servers and their endpoints.
func (a *App) ListLocal() error {
	store := a.manager.Store()
	names, err := store.List()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No servers configured.")
		fmt.Println("Use 'vpnkeeper setup NAME' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tENDPOINT")
	fmt.Fprintln(w, "----\t--------")
	for _, name := range names {
		endpoint, ok, err := store.Endpoint(name)
		if err != nil {
			return err
		}
		if !ok {
			endpoint = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", name, endpoint)
	}
	return w.Flush()
}

// ListRemote prints the servers the provider offers to this account.
func (a *App) ListRemote(ctx context.Context) error {
	creds, err := a.credentials()
	if err != nil {
		return err
	}

	servers, err := a.manager.Servers(ctx, creds)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		fmt.Println("No servers available.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCOUNTRY")
	fmt.Fprintln(w, "----\t-------")
	for _, server := range servers {
		country := server.Country
		if country == "" {
			country = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", server.Name, country)
	}
	return w.Flush()
}

// Status prints the observed daemon state. With a server name it also
// reports whether that server is configured locally.
func (a *App) Status(name string) error {
	status, err := a.manager.Status()
	if err != nil {
		return err
	}

	switch {
	case !status.Recorded:
		fmt.Println("Status: Disconnected")
	case status.Alive:
		fmt.Printf("Status: Connected (pid %d)\n", status.PID)
	default:
		fmt.Printf("Status: Stale (recorded pid %d is not running)\n", status.PID)
	}

	if name != "" {
		name = common.NormalizeServerName(name)
		if a.manager.Store().Exists(name) {
			fmt.Printf("Server %s: configured\n", name)
		} else {
			fmt.Printf("Server %s: not configured\n", name)
		}
	}
	return nil
}

// Rules prints the iptables-restore rule set for the current profiles.
func (a *App) Rules(lanBlock, iface, vif string) error {
	out, err := a.manager.Rules(lanBlock, iface, vif)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// History prints the most recent lifecycle transitions.
func (a *App) History(n int) error {
	if a.history == nil {
		fmt.Println("History is not available.")
		return nil
	}

	entries, err := a.history.Recent(n)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No transitions recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tOPERATION\tSERVER\tPID\tOUTCOME")
	fmt.Fprintln(w, "----\t---------\t------\t---\t-------")
	for _, e := range entries {
		server := e.Server
		if server == "" {
			server = "-"
		}
		pid := "-"
		if e.PID != 0 {
			pid = fmt.Sprintf("%d", e.PID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.Time.Local().Format("2006-01-02 15:04:05"), e.Op, server, pid, e.Outcome)
	}
	return w.Flush()
}

// Login prompts for provider credentials and stores them.
func (a *App) Login(username string) error {
	if username == "" {
		fmt.Print("Username: ")
		if _, err := fmt.Scanln(&username); err != nil {
			return fmt.Errorf("read username: %w", err)
		}
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	if err := keyring.StoreCredentials(username, string(password)); err != nil {
		return err
	}
	fmt.Println("Credentials stored.")
	return nil
}

// Logout deletes the stored provider credentials.
func (a *App) Logout() error {
	if !keyring.HasCredentials() {
		fmt.Println("No credentials stored.")
		return nil
	}
	if err := keyring.DeleteCredentials(); err != nil {
		return err
	}
	fmt.Println("Credentials removed.")
	return nil
}
