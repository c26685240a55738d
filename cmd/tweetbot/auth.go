package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tweetbot/pkg/auth"
	"tweetbot/pkg/ui"
)

var logoutAll bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Twitter API credentials",
	Long: `Manage stored Twitter API credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Never share your access token secret!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a set of API keys",
	Long: `Store the four OAuth values for one account: API key, API key secret,
access token and access token secret. Secrets are read without echo.

The name only labels the credential set; use the account's handle or anything
else memorable.`,
	Example: `  # Interactive login
  tweetbot auth login

  # Store keys under the name "work"
  tweetbot auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored credentials",
	Long: `Remove a stored credential set. Without a name you pick one from a list.`,
	Example: `  tweetbot auth logout work
  tweetbot auth logout --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credential sets",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var switchCmd = &cobra.Command{
	Use:   "switch [name]",
	Short: "Choose the credential set used by default",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSwitch,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(switchCmd)
	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove every stored account")
}

// prompter reads answers from stdin, hiding secrets when stdin is a terminal.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	secret func() (string, error)
}

func newPrompter() *prompter {
	p := &prompter{in: bufio.NewReader(os.Stdin), out: ui.Output()}
	p.secret = p.readHidden
	return p
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimSpace(s), nil
}

func (p *prompter) confirm(label string) bool {
	s, err := p.line(label + " (y/N): ")
	return err == nil && strings.HasPrefix(strings.ToLower(s), "y")
}

func (p *prompter) readHidden() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return p.line("")
	}
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// credential asks for one OAuth value until a non-empty one is given.
func (p *prompter) credential(label string, hidden bool) (string, error) {
	for {
		var (
			v   string
			err error
		)
		if hidden {
			fmt.Fprintf(p.out, "%s: ", label)
			v, err = p.secret()
		} else {
			v, err = p.line(label + ": ")
		}
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", label, err)
		}
		if v != "" {
			return v, nil
		}
		fmt.Fprintf(p.out, "%s is required\n", label)
	}
}

// choose lists accounts and returns the picked one, or nil on cancel.
func (p *prompter) choose(title string, accounts []*auth.Account) (*auth.Account, error) {
	fmt.Fprintln(p.out, title)
	for i, a := range accounts {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, a.Name)
	}
	fmt.Fprintln(p.out, "  0. Cancel")

	s, err := p.line("\nChoice: ")
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > len(accounts) {
		return nil, fmt.Errorf("invalid choice %q", s)
	}
	if n == 0 {
		return nil, nil
	}
	return accounts[n-1], nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	p := newPrompter()

	auth.ShowTokenGuide(p.out)
	fmt.Fprintln(p.out)

	account := &auth.Account{}
	if len(args) > 0 {
		account.Name = strings.TrimSpace(args[0])
	}
	if account.Name == "" {
		if account.Name, err = p.credential("Name for these keys", false); err != nil {
			return err
		}
	}

	if existing, _ := manager.Retrieve(account.Name); existing != nil {
		if !p.confirm(fmt.Sprintf("Account '%s' already exists. Replace it?", account.Name)) {
			return nil
		}
	}

	fmt.Fprintln(p.out, "\nSecrets are hidden as you type.")
	fields := []struct {
		label  string
		dst    *string
		hidden bool
	}{
		{"API key", &account.ConsumerKey, false},
		{"API key secret", &account.ConsumerSecret, true},
		{"Access token", &account.AccessToken, false},
		{"Access token secret", &account.AccessSecret, true},
	}
	for _, f := range fields {
		if *f.dst, err = p.credential(f.label, f.hidden); err != nil {
			return err
		}
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	ui.PrintSuccess("Account saved: " + account.Name)

	if accounts, _ := manager.List(); len(accounts) == 1 || manager.Current() == "" {
		if err := manager.Switch(account.Name); err == nil {
			ui.PrintInfo("Default account", account.Name)
		}
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if len(args) > 0 {
		if err := manager.Delete(args[0]); err != nil {
			return err
		}
		ui.PrintSuccess("Account removed: " + args[0])
		return nil
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts")
		return nil
	}

	p := newPrompter()
	if logoutAll {
		if !p.confirm(fmt.Sprintf("Remove all %d accounts?", len(accounts))) {
			return nil
		}
		var errs []error
		for _, a := range accounts {
			if err := manager.Delete(a.Name); err != nil && !errors.Is(err, auth.ErrCredentialsNotFound) {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}
		ui.PrintSuccess("All accounts removed")
		return nil
	}

	picked, err := p.choose("Select account to remove:", accounts)
	if err != nil || picked == nil {
		return err
	}
	if err := manager.Delete(picked.Name); err != nil {
		return err
	}
	ui.PrintSuccess("Account removed: " + picked.Name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "use 'tweetbot auth login' to add one")
		return nil
	}

	current := manager.Current()
	ui.PrintHighlight("Stored accounts")
	for i, a := range accounts {
		s := auth.SanitizeAccount(a)
		marker := ""
		if a.Name == current {
			marker = " " + ui.Green("(default)")
		}
		ui.Println(fmt.Sprintf("\n%d. %s%s", i+1, s.Name, marker))
		ui.Println("   API key:        " + s.ConsumerKey)
		ui.Println("   Access token:   " + s.AccessToken)
		if !a.LastModified.IsZero() {
			ui.Println("   Last modified:  " + a.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func runSwitch(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := ""
	if len(args) > 0 {
		name = args[0]
	} else {
		accounts, err := manager.List()
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			ui.PrintWarning("No stored accounts")
			return nil
		}
		picked, err := newPrompter().choose("Select the default account:", accounts)
		if err != nil || picked == nil {
			return err
		}
		name = picked.Name
	}

	if err := manager.Switch(name); err != nil {
		return err
	}
	ui.PrintSuccess("Default account: " + name)
	return nil
}
