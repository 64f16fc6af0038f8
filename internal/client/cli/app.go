// Package cli implements the interactive framez client: a REPL over the
// session, auth, and feed services.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/framezapp/framez/internal/client/auth"
	"github.com/framezapp/framez/internal/client/backend"
	"github.com/framezapp/framez/internal/client/config"
	"github.com/framezapp/framez/internal/client/deeplink"
	"github.com/framezapp/framez/internal/client/feed"
	"github.com/framezapp/framez/internal/client/profile"
	"github.com/framezapp/framez/internal/client/session"
	"github.com/framezapp/framez/internal/client/upload"
	"github.com/framezapp/framez/internal/logging"
)

type App struct {
	config  *config.Config
	client  *backend.RESTClient
	session *session.Manager
	auth    *auth.Service
	feed    *feed.Service
	links   *deeplink.Server
	log     logging.Logger
	reader  *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {
	log := logging.NewTextLogger(os.Stderr, slog.LevelInfo)

	tokenPath := c.TokenPath
	if tokenPath == "" {
		tokenPath = backend.DefaultTokenPath()
	}

	client, err := backend.NewRESTClient(backend.Options{
		BaseURL:   c.BackendURL,
		AnonKey:   c.AnonKey,
		TokenPath: tokenPath,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}

	boot := profile.NewBootstrapper(client, log)
	mgr := session.NewManager(client, boot, log, session.Options{
		ProfileTimeout: c.ProfileTimeout,
		SignOutWait:    c.SignOutWait,
		Notice: func(msg string) {
			fmt.Println(msg)
		},
	})

	strategies := []upload.Strategy{
		upload.NewMultipartStrategy(client),
		upload.NewBinaryStrategy(client),
		upload.NewBase64Strategy(client),
	}
	if c.S3Endpoint != "" && c.S3AccessKey != "" {
		strategies = append(strategies, upload.NewS3Strategy(upload.S3Config{
			Endpoint:  c.S3Endpoint,
			Region:    c.S3Region,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		}, client.GetPublicURL))
	}
	uploader := upload.NewUploader(log, strategies...)

	app := &App{
		config:  c,
		client:  client,
		session: mgr,
		auth:    auth.NewService(client, c.RedirectURL, log),
		feed:    feed.NewService(client, uploader, c.Bucket, log),
		log:     log,
		reader:  bufio.NewReader(os.Stdin),
	}
	app.links = deeplink.NewServer(c.CallbackAddr, log, func(raw string) {
		mgr.HandleDeepLink(context.Background(), raw)
	})
	return app, nil
}

// Run starts the deep-link listener and the session state machine, then
// hands control to the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.client.Close()
	defer a.session.Close()

	if err := a.links.Start(ctx); err != nil {
		a.log.Warn(ctx, "email-confirmation callback listener unavailable", "error", err)
	} else {
		defer func() { _ = a.links.Shutdown(ctx) }()
	}

	a.session.Start(ctx)

	fmt.Println("Welcome to framez (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().Status == session.StatusAuthenticated
}

// getStatus renders the prompt suffix from the current session snapshot.
func (a *App) getStatus() string {
	snap := a.session.Snapshot()
	switch {
	case !snap.IsReady:
		return "(...)"
	case snap.Status != session.StatusAuthenticated:
		return "(anonymous)"
	case snap.Profile != nil:
		return fmt.Sprintf("(%s)", snap.Profile.Username)
	default:
		return fmt.Sprintf("(%s)", snap.Identity.Email)
	}
}
