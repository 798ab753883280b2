package cmd

import (
	"errors"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/cookieport/cookieport/cmd/common"
	"github.com/cookieport/cookieport/internal/router"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

var (
	fetchAll    bool
	fetchSearch string
	fetchFormat string

	fetchFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "all, a",
			Usage:       "list the cookies of every domain (default: false)",
			Destination: &fetchAll,
		},
		cli.StringFlag{
			Name:        "search, s",
			Usage:       "only show cookies whose name or domain contains this",
			Destination: &fetchSearch,
		},
		cli.StringFlag{
			Name:        "format, f",
			Usage:       "output format: table, json, header or netscape",
			Value:       formatTable,
			Destination: &fetchFormat,
		},
	}
)

func fetch(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	a, l, err := common.NewApp(ctx, stderr)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer l.Close()

	opCtx, cancel := common.OperationContext(a.Config)
	defer cancel()

	view := listView{All: fetchAll, Search: fetchSearch}
	resp := a.Router.Handle(opCtx, &router.FetchAllRequest{ScopeToCurrentDomain: view.scoped()})
	if !resp.Success {
		common.PrintRuntimeErr(ctx, "fetch", string(router.ActionFetchAll), errors.New(resp.Error))
		return cli.NewExitError("", 1)
	}
	if err := view.render(stdout, resp.Cookies, fetchFormat); err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	return nil
}
