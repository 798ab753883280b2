package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"github.com/cookieport/cookieport/cmd/common"
	"github.com/cookieport/cookieport/internal/router"
)

var (
	exportAll bool

	exportFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "all, a",
			Usage:       "export the cookies of every domain (default: false)",
			Destination: &exportAll,
		},
		cli.StringSliceFlag{
			Name:  "name, n",
			Usage: "export only the cookie with this name (repeatable)",
		},
	}
)

func export(ctx *cli.Context) error {
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

	resp := a.Router.Handle(opCtx, &router.FetchAllRequest{ScopeToCurrentDomain: !exportAll})
	if !resp.Success {
		common.PrintRuntimeErr(ctx, "export", string(router.ActionFetchAll), errors.New(resp.Error))
		return cli.NewExitError("", 1)
	}
	names := ctx.StringSlice("name")
	selected := selectByName(resp.Cookies, names)
	if len(names) > 0 && len(selected) == 0 {
		return cli.NewExitError("no cookie matched the given names", 1)
	}

	resp = a.Router.Handle(opCtx, &router.ExportRequest{Cookies: selected})
	if !resp.Success {
		common.PrintRuntimeErr(ctx, "export", string(router.ActionExport), errors.New(resp.Error))
		return cli.NewExitError("", 1)
	}
	fmt.Fprintf(stdout, "%s: %s to %s\n", ctx.App.HelpName, resp.Message, a.Config.DownloadDir)
	return nil
}
