package cmd

import (
	"context"
	"errors"
	"os"
	"os/user"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/comiknet/comiknet/account"
	"github.com/comiknet/comiknet/color"
	"github.com/comiknet/comiknet/host"
	"github.com/comiknet/comiknet/icon"
	"github.com/comiknet/comiknet/session"
	"github.com/comiknet/comiknet/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(credentialsCmd)

	defaultUser := "default"
	if usr, err := user.Current(); err == nil {
		defaultUser = usr.Username
	}
	credentialsCmd.PersistentFlags().StringP("user", "u", defaultUser, "User the credentials belong to")
}

// credentialsCmd is the parent command for stored source credentials.
var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Log into sources and manage encrypted credentials",
}

var errKeyMismatch = errors.New("keys do not match")

func currentUser(cmd *cobra.Command) string {
	return lo.Must(cmd.Flags().GetString("user"))
}

func askKey(confirm bool) string {
	var key string
	handleErr(survey.AskOne(&survey.Password{
		Message: "Encryption key:",
	}, &key, survey.WithValidator(survey.Required)))

	if confirm {
		var again string
		handleErr(survey.AskOne(&survey.Password{Message: "Repeat key:"}, &again))
		if again != key {
			handleErr(errKeyMismatch)
		}
	}
	return key
}

func printSession(cmd *cobra.Command, h *host.Host, jar session.Jar) {
	cmd.Printf("%s %s=%s\n", icon.Get(icon.Cookie), style.Fg(color.Purple)(session.CookieName()), h.Sessions.Serialize(jar))
}

func init() {
	credentialsCmd.AddCommand(credentialsLoginCmd)
	credentialsLoginCmd.Flags().BoolP("remember", "r", false, "Encrypt and store the submitted form")
	credentialsLoginCmd.SetOut(os.Stdout)
}

// credentialsLoginCmd prompts for the login fields of a source and logs in.
var credentialsLoginCmd = &cobra.Command{
	Use:   "login <source>",
	Short: "Log into a source, optionally storing the credentials",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		src := args[0]
		remember := lo.Must(cmd.Flags().GetBool("remember"))

		withHost(func(ctx context.Context, h *host.Host) error {
			fields, err := h.Dispatcher.LoginFields(src)
			if err != nil {
				return explainSourceErr(err, src, h.Dispatcher.Sources())
			}

			form := make(map[string]string, len(fields))
			for _, field := range fields {
				var (
					answer string
					prompt survey.Prompt = &survey.Input{Message: field + ":"}
				)
				if strings.Contains(strings.ToLower(field), "pass") {
					prompt = &survey.Password{Message: field + ":"}
				}
				if err := survey.AskOne(prompt, &answer); err != nil {
					return err
				}
				form[field] = answer
			}

			req := account.LoginRequest{User: currentUser(cmd), Source: src, Form: form, Remember: remember}
			if remember {
				req.Key = askKey(true)
			}

			jar := h.Sessions.Deserialize("")
			if err := h.Accounts.Login(ctx, req, jar); err != nil {
				return err
			}

			cmd.Printf("%s logged into %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(src))
			printSession(cmd, h, jar)
			return nil
		})
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsRestoreCmd)
	credentialsRestoreCmd.SetOut(os.Stdout)
}

// credentialsRestoreCmd logs in again with stored credentials.
var credentialsRestoreCmd = &cobra.Command{
	Use:   "restore [source]",
	Short: "Log in again using stored credentials. Restores every source when none is given",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withHost(func(ctx context.Context, h *host.Host) error {
			usr := currentUser(cmd)
			key := askKey(false)
			jar := h.Sessions.Deserialize("")

			if len(args) == 1 {
				if err := h.Accounts.Restore(ctx, usr, args[0], key, jar); err != nil {
					return explainSourceErr(err, args[0], h.Dispatcher.Sources())
				}
			} else {
				failed, err := h.Accounts.RestoreAll(ctx, usr, key, jar)
				if err != nil {
					return err
				}
				for src, err := range failed {
					cmd.Printf("%s %s %s\n", icon.Get(icon.Fail), style.Bold(src), style.Fg(color.Red)(err.Error()))
				}
			}

			printSession(cmd, h, jar)
			return nil
		})
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsListCmd)
	credentialsListCmd.SetOut(os.Stdout)
}

// credentialsListCmd lists sources with stored credentials.
var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the sources with stored credentials",
	Run: func(cmd *cobra.Command, args []string) {
		withHost(func(ctx context.Context, h *host.Host) error {
			records, err := h.Store().List(ctx, currentUser(cmd))
			if err != nil {
				return err
			}

			for _, rec := range records {
				status := lo.Ternary(h.Registry.Has(rec.Source), icon.Get(icon.Lock), icon.Get(icon.Warn))
				cmd.Printf("%s %s %s\n", status, style.Bold(rec.Source), style.Faint(rec.UpdatedAt.Local().Format("2006-01-02 15:04")))
			}
			return nil
		})
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsShowCmd)
	credentialsShowCmd.Flags().Bool("reveal", false, "Print secret values instead of masking them")
	credentialsShowCmd.SetOut(os.Stdout)
}

// credentialsShowCmd decrypts stored credentials.
var credentialsShowCmd = &cobra.Command{
	Use:   "show <source>",
	Short: "Decrypt and display stored credentials",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reveal := lo.Must(cmd.Flags().GetBool("reveal"))

		withHost(func(ctx context.Context, h *host.Host) error {
			secret, err := h.Accounts.Reveal(ctx, currentUser(cmd), args[0], askKey(false))
			if err != nil {
				return err
			}

			form := secret.Form()
			keys := lo.Keys(form)
			sort.Strings(keys)
			for _, k := range keys {
				value := form[k]
				if !reveal {
					value = strings.Repeat("*", len(value))
				}
				cmd.Printf("%s %s\n", style.Fg(color.Blue)(k+":"), value)
			}
			return nil
		})
	},
}

func init() {
	credentialsCmd.AddCommand(credentialsDeleteCmd)
}

// credentialsDeleteCmd removes stored credentials.
var credentialsDeleteCmd = &cobra.Command{
	Use:     "delete <source>",
	Aliases: []string{"forget"},
	Short:   "Delete stored credentials of a source",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withHost(func(ctx context.Context, h *host.Host) error {
			if err := h.Accounts.Forget(ctx, currentUser(cmd), args[0], nil); err != nil {
				return err
			}

			cmd.Printf("%s deleted credentials of %s\n", icon.Get(icon.Success), style.Fg(color.Yellow)(args[0]))
			return nil
		})
	},
}
