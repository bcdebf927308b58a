// Command usersctl is the CLI face of the example application.
//
//	usersctl users:add Ada --email=ada@example.com
//	usersctl --help
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/km-arc/go-composer/app"
	kernel "github.com/km-arc/go-composer/framework/app"
	"github.com/km-arc/go-composer/framework/config"
	"github.com/km-arc/go-composer/framework/console"
	"github.com/km-arc/go-composer/framework/core"
	"github.com/km-arc/go-composer/framework/metadata"
	"github.com/km-arc/go-composer/framework/providers"
)

func main() {
	cfg := config.Load()
	app.Declare(metadata.Default, providers.WithConfig(cfg), providers.WithLogger(zap.NewNop()))

	application := kernel.New(core.RefOf[*app.ConsoleModule](), console.NewAdapter(console.WithName("usersctl")),
		kernel.WithConfig(cfg))

	err := application.Exec(context.Background(), os.Args[1:], os.Stdout)
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)

	var missing *console.MissingCommandError
	var notFound *console.NotFoundError
	if errors.As(err, &missing) || errors.As(err, &notFound) {
		os.Exit(2)
	}
	os.Exit(1)
}
