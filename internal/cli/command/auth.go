package command

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/minisocial-go/internal/cli/form"
	"github.com/yndnr/minisocial-go/internal/core/domain"
	"github.com/yndnr/minisocial-go/pkg/token"
)

// authTaskKey is shared by login and signup: a new submission supersedes
// one still in flight.
const authTaskKey = "auth"

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Username (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "Password (prompted when omitted)",
			},
		},
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}

	f := &form.LoginForm{
		Username: c.String("username"),
		Password: c.String("password"),
	}
	if f.Username == "" {
		if f.Username, err = rt.promptLine(c, "Username: "); err != nil {
			return err
		}
	}
	if f.Password == "" {
		if f.Password, err = rt.readPassword(c, "Password: "); err != nil {
			return err
		}
	}

	res, err := submitLogin(c, rt, f)
	if err != nil {
		return err
	}
	if !res.OK() {
		return res.Err
	}
	return rt.Printer.Message("Logged in as %s", f.Username)
}

func submitLogin(c *cli.Context, rt *Runtime, f *form.LoginForm) (form.Result, error) {
	var res form.Result
	err := rt.run(c, authTaskKey, "Logging in", func(ctx context.Context) error {
		res = f.Submit(ctx, rt.Session)
		return nil
	})
	return res, err
}

// SignupCommand returns the signup command.
func SignupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "username",
				Aliases: []string{"u"},
				Usage:   "Username (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:  "password",
				Usage: "Password (prompted twice when omitted)",
			},
			&cli.StringFlag{
				Name:  "confirm",
				Usage: "Password confirmation (defaults to --password)",
			},
			&cli.StringFlag{
				Name:  "full-name",
				Usage: "Display name",
			},
			&cli.BoolFlag{
				Name:  "login",
				Usage: "Log in after the account is created",
			},
		},
		Action: signupAction,
	}
}

func signupAction(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}

	f := &form.SignupForm{
		Username: c.String("username"),
		Password: c.String("password"),
		Confirm:  c.String("confirm"),
		FullName: c.String("full-name"),
	}
	if f.Username == "" {
		if f.Username, err = rt.promptLine(c, "Username: "); err != nil {
			return err
		}
	}
	switch {
	case f.Password == "":
		if f.Password, err = rt.readPassword(c, "Password: "); err != nil {
			return err
		}
		if f.Confirm, err = rt.readPassword(c, "Confirm password: "); err != nil {
			return err
		}
	case !c.IsSet("confirm"):
		f.Confirm = f.Password
	}

	var res form.Result
	err = rt.run(c, authTaskKey, "Creating account", func(ctx context.Context) error {
		res = f.Submit(ctx, rt.Session)
		return nil
	})
	if err != nil {
		return err
	}
	if !res.OK() {
		return res.Err
	}

	if err := rt.Printer.Print(res.User); err != nil {
		return err
	}
	if !c.Bool("login") || res.Next != form.RouteLogin {
		return nil
	}

	login := &form.LoginForm{Username: f.Username, Password: f.Password}
	lres, err := submitLogin(c, rt, login)
	if err != nil {
		return err
	}
	if !lres.OK() {
		return lres.Err
	}
	return rt.Printer.Message("Logged in as %s", login.Username)
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the stored session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Forget the sessions of every profile",
			},
		},
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}

	if c.Bool("all") {
		namespaces, err := rt.Store.Namespaces()
		if err != nil {
			return err
		}
		for _, ns := range namespaces {
			if err := rt.storeFor(ns).Clear(); err != nil {
				return err
			}
		}
		return rt.Printer.Message("Logged out of %d profile(s)", len(namespaces))
	}

	if rt.Session.State() == domain.Anonymous {
		return rt.Printer.Message("Not logged in")
	}
	rt.Session.Logout()
	return rt.Printer.Message("Logged out")
}

// AuthCommand returns the auth subcommand group.
func AuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Inspect the stored session",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show the session state of the active profile",
				Action: authStatus,
			},
		},
	}
}

type sessionStatus struct {
	State        domain.SessionState `json:"state"`
	Profile      string              `json:"profile"`
	Server       string              `json:"server"`
	AccessToken  string              `json:"access_token,omitempty"`
	RefreshToken string              `json:"refresh_token,omitempty"`
	Subject      string              `json:"subject,omitempty"`
	ExpiresAt    domain.Timestamp    `json:"expires_at,omitzero"`
	Expired      bool                `json:"expired,omitempty"`
}

// authStatus reports the session without contacting the server. Tokens
// are shown as fingerprints only.
func authStatus(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}

	st := sessionStatus{
		State:   rt.Session.State(),
		Profile: rt.Config.Namespace(),
		Server:  rt.Config.ActiveServer(),
	}
	if pair, ok := rt.Session.Tokens(); ok && pair.Valid() {
		st.AccessToken = token.Fingerprint(pair.AccessToken)
		if pair.RefreshToken != "" {
			st.RefreshToken = token.Fingerprint(pair.RefreshToken)
		}
		if claims, err := domain.InspectAccessToken(pair.AccessToken); err == nil {
			st.Subject = claims.Subject
			st.ExpiresAt = domain.Timestamp{Time: claims.ExpiresAt}
			st.Expired = claims.Expired(time.Now())
		} else {
			rt.Logger.Debug("access token is not a JWT", "error", err)
		}
	}
	return rt.Printer.Print(st)
}
