package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/framezapp/framez/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the sign-up fields and creates an account. Sign-up
// always ends with a confirmation prompt: the user is not authenticated until
// they click the link in the confirmation email.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	fullName, err := getSimpleText(a.reader, "Enter full name (optional)", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := context.WithTimeout(ctx, a.config.AuthTimeout)
	defer cancel()

	res, err := a.auth.SignUp(ctx, email, string(password), username, fullName)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyRegistered) {
			fmt.Println("An account with this email already exists. Please log in instead.")
			return err
		}
		fmt.Println("Sign up failed:", err.Error())
		return err
	}

	if res.RequiresEmailConfirmation {
		fmt.Println("Account created. Check your email for a confirmation link, then log in.")
	}
	return nil
}

// Login prompts for credentials and authenticates. On success the session
// manager picks up the sign-in event and the prompt status updates on its own.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := context.WithTimeout(ctx, a.config.AuthTimeout)
	defer cancel()

	if err := a.auth.SignIn(ctx, email, string(password)); err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			fmt.Println("Invalid email or password. Please check your credentials and try again.")
		case errors.Is(err, common.ErrEmailNotConfirmed):
			fmt.Println("Please verify your account first: we sent a confirmation link to your email.")
			fmt.Println("Use 'resend' to request another one.")
		default:
			fmt.Println("Login failed:", err.Error())
		}
		return err
	}

	fmt.Println("Logged in.")
	return nil
}

// Logout requests a backend sign-out and arms the bounded local clear in
// case the sign-out event never arrives.
func (a *App) Logout(ctx context.Context) error {
	tctx, cancel := context.WithTimeout(ctx, a.config.AuthTimeout)
	defer cancel()

	a.auth.SignOut(tctx)
	a.session.ExpectSignOut(ctx)
	fmt.Println("Logged out.")
	return nil
}

// Resend re-triggers the sign-up confirmation email.
func (a *App) Resend(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.AuthTimeout)
	defer cancel()

	if err := a.auth.ResendConfirmationEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrRateLimited) {
			fmt.Println("A confirmation email was sent recently. Wait a minute before retrying.")
		} else {
			fmt.Println("Could not resend confirmation email:", err.Error())
		}
		return err
	}

	fmt.Println("Confirmation email sent.")
	return nil
}
