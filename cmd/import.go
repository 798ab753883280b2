package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"

	"github.com/cookieport/cookieport/cmd/common"
	"github.com/cookieport/cookieport/internal/cookies"
	"github.com/cookieport/cookieport/internal/router"
)

var (
	importHeader string

	importFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "header",
			Usage:       `apply a Cookie header or document.cookie string ("a=1; b=2") instead of a file`,
			Destination: &importHeader,
		},
	}
)

func importFile(ctx *cli.Context) error {
	file := ctx.Args().First()
	if file == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	} else if file == "" && importHeader == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no file provided"))
	} else if file != "" && importHeader != "" {
		return cli.NewExitError(ctx.App.HelpName+": pass either FILE or --header, not both", 1)
	}
	a, l, err := common.NewApp(ctx, stderr)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer l.Close()

	payload, err := readPayload(file)
	if err != nil {
		common.PrintRuntimeErr(ctx, "import", "decode", err)
		return cli.NewExitError("", 1)
	}

	opCtx, cancel := common.OperationContext(a.Config)
	defer cancel()

	p := mpb.NewWithContext(opCtx, mpb.WithOutput(stderr))
	bar := common.NewImportBar(p, len(payload.Cookies))
	req := &router.ImportRequest{
		Payload: payload,
		Progress: func(done, total int, name string, err error) {
			bar.Increment()
		},
	}
	resp := a.Router.Handle(opCtx, req)
	if !resp.Success {
		bar.Abort(false)
	}
	p.Wait()

	if !resp.Success {
		common.PrintRuntimeErr(ctx, "import", string(router.ActionImport), errors.New(resp.Error))
		return cli.NewExitError("", 1)
	}
	fmt.Fprintf(stdout, "%s: %s\n", ctx.App.HelpName, resp.Message)
	return nil
}

// readPayload decodes the export file at path, or builds a payload for
// the active tab from --header.
func readPayload(path string) (*cookies.ImportPayload, error) {
	if importHeader != "" {
		records := cookies.ParseCookieHeader(importHeader)
		if len(records) == 0 {
			return nil, fmt.Errorf("%w: no cookies in header", cookies.ErrMalformedPayload)
		}
		return &cookies.ImportPayload{Cookies: records}, nil
	}
	data, err := afero.ReadFile(common.Fs, path)
	if err != nil {
		return nil, err
	}
	return cookies.DecodeImportPayload(data)
}
