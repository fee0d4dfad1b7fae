package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipup/internal/youtube"
)

const authTimeout = 5 * time.Minute

const setupHelp = `No OAuth client secrets found at %s.

To create them:
  1. Open https://console.cloud.google.com/ and create (or pick) a project.
  2. Enable the "YouTube Data API v3" for it.
  3. Configure the OAuth consent screen (External) and add yourself as a
     test user.
  4. Create an OAuth client ID of type "Desktop app" and download its JSON.
  5. Save the file as %s (or set paths.credentials) and run "clipup auth"
     again.
`

func newAuthCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in to YouTube and store the upload token",
		Long: `Runs the one-time OAuth consent flow. A browser window opens on Google's
consent page; after you approve, the token is written to paths.token and
refreshed automatically by later uploads.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runAuth(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("credentials", "", "OAuth client secrets JSON (default from config)")
	f.String("token", "", "where to store the token (default from config)")
	f.Bool("no-browser", false, "print the consent URL instead of opening a browser")
	addConfigFlag(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func runAuth(ctx context.Context, v *viper.Viper) error {
	setupLogging(v)

	a, err := loadApp(v)
	if err != nil {
		return err
	}
	defer a.Close()

	credPath := a.cfg.Paths.Credentials
	oc, err := youtube.LoadOAuthConfig(credPath)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, setupHelp, credPath, credPath)
		return fmt.Errorf("missing client secrets %s", credPath)
	}
	if err != nil {
		return err
	}

	noBrowser := v.GetBool("no-browser")
	browser.Stdout = os.Stderr
	open := func(u string) error {
		fmt.Fprintf(os.Stderr, "Open this URL to authorize clipup:\n\n  %s\n\n", u)
		if noBrowser {
			return nil
		}
		return browser.OpenURL(u)
	}

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()
	tok, err := youtube.Authorize(ctx, oc, open)
	if err != nil {
		return err
	}

	store := youtube.NewTokenStore(a.cfg.Paths.Token)
	if err := store.Save(tok); err != nil {
		return err
	}
	fmt.Printf("Token saved to %s\n", store.Path())
	return nil
}
