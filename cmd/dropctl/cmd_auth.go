package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/dropspots/internal/core/domain"
	"github.com/samirrijal/dropspots/internal/session"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in and store the session",
	Long: `Sign in with email and password. The password may also come from
DROPCTL_PASSWORD so it stays out of shell history.`,
	RunE: runSignIn,
}

var signUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account and sign in",
	RunE:  runSignUp,
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Revoke the session and forget it locally",
	RunE:  runSignOut,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show who is signed in",
	Long:  `Restores the stored session, refreshing it when it is close to expiry.`,
	RunE:  runStatus,
}

func init() {
	for _, c := range []*cobra.Command{signInCmd, signUpCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password (or DROPCTL_PASSWORD)")
		_ = c.MarkFlagRequired("email")
	}
	signUpCmd.Flags().StringVar(&authName, "name", "", "display name")

	rootCmd.AddCommand(signInCmd, signUpCmd, signOutCmd, statusCmd)
}

func password() (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	if p := os.Getenv("DROPCTL_PASSWORD"); p != "" {
		return p, nil
	}
	return "", errors.New("--password or DROPCTL_PASSWORD is required")
}

func runSignIn(cmd *cobra.Command, args []string) error {
	pw, err := password()
	if err != nil {
		return err
	}
	tokens, user, err := current.auth.SignIn(cmd.Context(), authEmail, pw)
	if err != nil {
		return err
	}
	return saveSession(cmd, tokens, user)
}

func runSignUp(cmd *cobra.Command, args []string) error {
	pw, err := password()
	if err != nil {
		return err
	}
	tokens, user, err := current.auth.SignUp(cmd.Context(), authEmail, pw, authName)
	if err != nil {
		return err
	}
	return saveSession(cmd, tokens, user)
}

func saveSession(cmd *cobra.Command, tokens domain.SessionTokens, user *domain.User) error {
	if err := current.session.Save(cmd.Context(), tokens, user); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if user != nil {
		fmt.Fprintf(current.out, "Signed in as %s.\n", user.Email)
	} else {
		fmt.Fprintln(current.out, "Signed in.")
	}
	return nil
}

func runSignOut(cmd *cobra.Command, args []string) error {
	state, err := current.session.State(cmd.Context())
	if err != nil {
		return err
	}
	if state == session.Anonymous {
		fmt.Fprintln(current.out, "Not signed in.")
		return nil
	}
	return current.session.SignOut(cmd.Context())
}

func runStatus(cmd *cobra.Command, args []string) error {
	state, err := current.session.Restore(cmd.Context())
	if err != nil {
		return err
	}
	if state != session.Authenticated {
		fmt.Fprintln(current.out, "Not signed in.")
		return nil
	}

	user, err := current.session.User(cmd.Context())
	if err != nil {
		return err
	}
	if user == nil {
		fmt.Fprintln(current.out, "Signed in.")
		return nil
	}
	if user.Name != "" {
		fmt.Fprintf(current.out, "Signed in as %s (%s).\n", user.Name, user.Email)
	} else {
		fmt.Fprintf(current.out, "Signed in as %s.\n", user.Email)
	}
	return nil
}
