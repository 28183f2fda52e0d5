package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func promptFor(label string) (string, error) {
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

func newLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and persist the session tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if password == "" {
				if password, err = promptFor("password"); err != nil {
					return err
				}
			}

			if err := a.session.Authenticate(cmd.Context(), args[0], password); err != nil {
				return err
			}

			identity := a.session.Identity()
			fmt.Printf("Logged in as %s <%s>\n", identity.Name, identity.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and clear persisted tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Validate the stored session and print the identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if err := a.session.CheckAuthentication(cmd.Context()); err != nil {
				return err
			}
			if !a.session.Authenticated() {
				fmt.Println("Not logged in")
				return nil
			}

			identity := a.session.Identity()
			fmt.Printf("Name:  %s\nEmail: %s\nID:    %s\n", identity.Name, identity.Email, identity.CognitoUserID)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var name, password string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Register a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if password == "" {
				if password, err = promptFor("password"); err != nil {
					return err
				}
			}

			sub, err := a.session.SignUp(cmd.Context(), args[0], password, name)
			if err != nil {
				return err
			}
			fmt.Printf("Account created (id %s). Check your email for the confirmation code,\nthen run: orghub confirm %s <code>\n", sub, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <email> <code>",
		Short: "Confirm a registration with the emailed code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.session.ConfirmSignUp(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Println("Account confirmed, you can now log in")
			return nil
		},
	}
}

func newForgotPasswordCmd() *cobra.Command {
	var code, newPassword string

	cmd := &cobra.Command{
		Use:   "forgot-password <email>",
		Short: "Start or complete a password reset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			if code == "" {
				if err := a.session.ForgotPassword(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Println("Reset code sent. Re-run with --code and --new-password to finish.")
				return nil
			}

			if newPassword == "" {
				if newPassword, err = promptFor("new password"); err != nil {
					return err
				}
			}
			if err := a.session.ConfirmForgotPassword(cmd.Context(), args[0], code, newPassword); err != nil {
				return err
			}
			fmt.Println("Password reset")
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "reset code from the email")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "new password")
	return cmd
}
