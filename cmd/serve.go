package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/cookieport/cookieport/cmd/common"
	"github.com/cookieport/cookieport/internal/config"
	"github.com/cookieport/cookieport/internal/secret"
	"github.com/cookieport/cookieport/internal/server"
)

var (
	serveAddr         string
	serveShowSecret   bool
	serveRotateSecret bool

	serveFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address (default: 127.0.0.1:8729)",
			Destination: &serveAddr,
		},
		cli.BoolFlag{
			Name:        "show-secret",
			Usage:       "print the bearer secret on startup",
			Destination: &serveShowSecret,
		},
		cli.BoolFlag{
			Name:        "rotate-secret",
			Usage:       "replace the stored bearer secret with a new one",
			Destination: &serveRotateSecret,
		},
	}
)

// serveContext is replaced in tests.
var serveContext = func() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serve(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	a, l, err := common.NewApp(ctx, stderr)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer l.Close()

	token, created, err := rpcSecret(a.Config, serveRotateSecret)
	if err != nil {
		common.PrintRuntimeErr(ctx, "serve", "secret", err)
		return cli.NewExitError("", 1)
	}
	if created || serveShowSecret {
		fmt.Fprintf(stdout, "%s: rpc secret: %s\n", ctx.App.HelpName, token)
	}

	cfg := &server.RPCConfig{
		Secret:  token,
		Version: buildInfo.Version,
		Commit:  buildInfo.Commit,
	}
	if v, ok := a.Store.(server.Versioner); ok {
		cfg.Browser = v
	}
	addr := a.Config.RPCAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	s := server.NewServer(addr, server.NewRPCServer(cfg, a.Router, l), l)

	sigCtx, stop := serveContext()
	defer stop()
	if err := s.Start(sigCtx); err != nil {
		common.PrintRuntimeErr(ctx, "serve", "listen", err)
		return cli.NewExitError("", 1)
	}
	return nil
}

// rpcSecret returns the configured secret, or the stored one, generating
// it on first use. rotate discards the stored secret first.
func rpcSecret(cfg *config.Config, rotate bool) (string, bool, error) {
	if cfg.RPCSecret != "" {
		if rotate {
			return "", false, errors.New("cannot rotate a secret set in the environment")
		}
		return cfg.RPCSecret, false, nil
	}
	st := secret.New(common.Fs, cfg.ConfigDir)
	if !rotate {
		return st.GetOrCreate()
	}
	if err := st.Delete(); err != nil {
		return "", false, err
	}
	v, err := st.Generate()
	return v, err == nil, err
}
