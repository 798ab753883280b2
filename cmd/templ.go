package cmd

const DESCRIPTION = `
cookieport reads the cookies of the tab you are looking at, saves them
to a JSON export file and applies such a file back to the same site.
It works against a live Chromium browser over the DevTools protocol or
directly on Firefox, Chromium and Netscape cookie files.
`

const (
	FetchDescription = `The fetch command lists the cookies of the active tab,
including those of its parent domains. Use --all to list
every cookie in the store.

Example:
        cookieport fetch --search session --format json

`
	ExportDescription = `The export command saves cookies to a file named
cookies_<timestamp>.json in the download directory. Use
--name to pick individual cookies.

Example:
        cookieport export --name sid --name csrftoken

`
	ImportDescription = `The import command applies an export file to the
active tab. A file exported from another site is refused.
--header takes cookies copied from a Cookie header or
document.cookie instead of a file.

Example:
        cookieport import ~/Downloads/cookies_2024-05-06T07-08-09-000Z.json
        cookieport import --header "theme=dark; lang=en"

`
	ServeDescription = `The serve command exposes fetch, export and import as a
JSON-RPC 2.0 service on HTTP and WebSocket. Calls need
the bearer secret, which is generated on first use.
--rotate-secret replaces it and prints the new one.

Example:
        cookieport serve --addr 127.0.0.1:8729

`
)

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`
