package nativehost

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli"

	"github.com/cookieport/cookieport/cmd/common"
	"github.com/cookieport/cookieport/internal/app"
	"github.com/cookieport/cookieport/internal/config"
	"github.com/cookieport/cookieport/internal/nativehost"
	"github.com/cookieport/cookieport/pkg/logger"
)

// LogFile is written next to the RPC secret in the config directory.
const LogFile = "nativehost.log"

// stderr is replaced in tests.
var stderr io.Writer = os.Stderr

// run serves the browser over stdin and stdout. Stdout belongs to the
// protocol, so everything else goes to stderr and to a log file, since
// most browsers discard a host's stderr.
func run(c *cli.Context) error {
	cfg := common.LoadConfig(c)
	l := hostLogger(cfg)
	defer l.Close()

	a, err := app.New(cfg, common.Fs, l)
	if err != nil {
		l.Error("native host: %v", err)
		return cli.NewExitError("native host configuration error", 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l.Info("native host started (store %s)", cfg.Store)
	host := nativehost.NewHost(a.Router, l)
	if err := host.Run(ctx); err != nil {
		l.Error("native host: %v", err)
		return cli.NewExitError("native host error", 1)
	}
	return nil
}

// hostLogger logs to stderr and, when it can be opened, to LogFile.
func hostLogger(cfg *config.Config) logger.Logger {
	prefix := "cookieport-host: "
	console := logger.New(stderr, prefix, cfg.Debug)
	if err := common.Fs.MkdirAll(cfg.ConfigDir, 0755); err != nil {
		console.Warning("cannot create %s: %v", cfg.ConfigDir, err)
		return console
	}
	path := filepath.Join(cfg.ConfigDir, LogFile)
	f, err := common.Fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		console.Warning("cannot open %s: %v", path, err)
		return console
	}
	return logger.NewMultiLogger(console, &fileLogger{logger.New(f, prefix, cfg.Debug), f})
}

// fileLogger closes its file along with the logger.
type fileLogger struct {
	*logger.StandardLogger
	f io.Closer
}

func (l *fileLogger) Close() error {
	return l.f.Close()
}

