package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/yourorg/wanderplan/internal/accounts"
	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/notify"
	"github.com/yourorg/wanderplan/internal/session"
)

func registerCmd() *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := state.accounts.Register(cmd.Context(), req)
			if errors.Is(err, accounts.ErrDuplicate) {
				printNotice(notify.Notice{Level: notify.Warn, Title: "Already taken", Message: "That username or email is already registered."})
				return nil
			}
			if err != nil {
				return err
			}
			return signedIn(cmd, resp)
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (8-72 characters)")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd() *cobra.Command {
	var req models.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in on this install",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := state.accounts.Login(cmd.Context(), req)
			if errors.Is(err, accounts.ErrInvalidCredentials) {
				printNotice(notify.Notice{Level: notify.Error, Title: "Sign-in failed", Message: "Invalid username or password."})
				return nil
			}
			if err != nil {
				return err
			}
			return signedIn(cmd, resp)
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the active trip",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := state.session.ClearOnLogout(cmd.Context()); err != nil {
				return err
			}
			printNotice(notify.Notice{Level: notify.Success, Title: "Signed out", Message: "The active trip was cleared."})
			return nil
		},
	}
}

func signedIn(cmd *cobra.Command, resp models.LoginResponse) error {
	err := state.session.SetIdentity(cmd.Context(), session.Identity{
		UserID:    resp.User.ID,
		Username:  resp.User.Username,
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
	})
	if err != nil {
		return err
	}
	// a previous user's selection survives until this refresh drops it
	if err := state.session.Sync(cmd.Context(), state.store, resp.User.ID); err != nil {
		return err
	}
	printNotice(notify.Notice{Level: notify.Success, Title: "Signed in", Message: "Welcome, " + resp.User.Username + "."})
	return nil
}
