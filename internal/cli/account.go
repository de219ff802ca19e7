package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/waterwatch/internal/common"
)

// getSimpleText, getWithDefault and getPassword are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText  = GetSimpleText
	getWithDefault = GetWithDefault
	getPassword    = GetPassword
)

func (a *App) readPassword(prompt string) (string, error) {
	pw, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Register prompts for the account fields and creates the account. The user
// is not logged in afterwards.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Full name", a.out)
	if err != nil {
		return err
	}
	mobile, err := getSimpleText(a.reader, "Mobile number (10 digits)", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Email (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := a.readPassword("Password")
	if err != nil {
		return err
	}
	confirm, err := a.readPassword("Confirm password")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("Passwords do not match")
	}

	return a.printResult(a.accounts.Register(ctx, name, mobile, password, email))
}

// Login prompts for the mobile number and password and starts a session.
func (a *App) Login(ctx context.Context) error {
	mobile, err := getSimpleText(a.reader, "Mobile number", a.out)
	if err != nil {
		return err
	}
	password, err := a.readPassword("Password")
	if err != nil {
		return err
	}

	if err := a.printResult(a.accounts.Login(ctx, mobile, password)); err != nil {
		return err
	}
	if u, ok := a.accounts.CurrentUser(ctx); ok {
		fmt.Fprintf(a.out, "Welcome, %s!\n", u.FullName)
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.accounts.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// WhoAmI prints the profile of the logged-in user.
func (a *App) WhoAmI(ctx context.Context) error {
	u, err := a.requireLogin(ctx)
	if err != nil {
		return err
	}
	email := u.Email
	if email == "" {
		email = "-"
	}
	fmt.Fprintf(a.out, "Name:   %s\nMobile: %s\nEmail:  %s\n", u.FullName, u.MobileNumber, email)
	return nil
}

// ChangePassword asks for the current password and the new one twice.
func (a *App) ChangePassword(ctx context.Context) error {
	if _, err := a.requireLogin(ctx); err != nil {
		return err
	}

	current, err := a.readPassword("Current password")
	if err != nil {
		return err
	}
	if current == "" {
		return errors.New("Please enter your current password")
	}
	next, err := a.readPassword("New password")
	if err != nil {
		return err
	}
	if next == "" {
		return errors.New("Please enter a new password")
	}
	confirm, err := a.readPassword("Confirm new password")
	if err != nil {
		return err
	}
	switch {
	case confirm == "":
		return errors.New("Please confirm your new password")
	case next != confirm:
		return errors.New("New passwords do not match")
	case next == current:
		return errors.New("New password must be different from current password")
	}

	return a.printResult(a.accounts.ChangePassword(ctx, current, next))
}

// Profile edits name, mobile number and email. Empty answers keep the
// current value; "-" clears the email.
func (a *App) Profile(ctx context.Context) error {
	u, err := a.requireLogin(ctx)
	if err != nil {
		return err
	}

	name, err := getWithDefault(a.reader, "Full name", u.FullName, a.out)
	if err != nil {
		return err
	}
	mobile, err := getWithDefault(a.reader, "Mobile number", u.MobileNumber, a.out)
	if err != nil {
		return err
	}
	email, err := getWithDefault(a.reader, "Email ('-' to clear)", u.Email, a.out)
	if err != nil {
		return err
	}
	if email == "-" {
		email = ""
	}

	return a.printResult(a.accounts.UpdateProfile(ctx, name, mobile, email))
}
