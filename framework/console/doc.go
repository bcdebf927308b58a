// Package console is the CLI transport adapter.
//
// Linking a compiled module tree with console.NewAdapter produces an *App.
// Methods declared with core.KindCommand become named commands and a single
// core.KindMain method becomes the program itself:
//
//	app, err := linker.New(console.NewAdapter(console.WithName("tool"))).Link(compiled)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = app.(*console.App).Run(ctx, os.Args[1:], os.Stdout)
package console
