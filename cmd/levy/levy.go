package main

import (
	"os"

	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/operations"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

func main() {
	// the cli package manages the command line interface; buildApp
	// holds all the configuration needed to bootstrap the tools.
	app := buildApp()
	err := app.Run(os.Args)
	grip.EmergencyFatal(err)
}

func buildApp() *cli.App {
	app := cli.NewApp()

	app.Name = "levy"
	app.Usage = "Lévy section analysis of return series"
	app.Version = "0.1.0"
	if levy.BuildRevision != "" {
		app.Version += "+" + levy.BuildRevision
	}

	app.Commands = []cli.Command{
		operations.Analyze(),
		operations.Sweep(),
		operations.Features(),
		operations.Batch(),
		operations.Service(),
	}

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "level",
			Value:  "info",
			EnvVar: "LEVY_LOG_LEVEL",
			Usage:  "lowest visible log level: emergency, alert, critical, error, warning, notice, info or debug",
		},
	}

	app.Before = func(c *cli.Context) error {
		return errors.WithStack(loggingSetup(app.Name, c.String("level")))
	}

	return app
}

// loggingSetup names the global sender and sets its threshold. Unknown
// level names are an error rather than a silent default.
func loggingSetup(name, logLevel string) error {
	threshold := level.FromString(logLevel)
	if threshold == level.Invalid {
		return errors.Errorf("unknown log level '%s'", logLevel)
	}

	sender := grip.GetSender()
	sender.SetName(name)

	lvl := sender.Level()
	lvl.Threshold = threshold
	return errors.Wrapf(sender.SetLevel(lvl), "setting log level to '%s'", logLevel)
}
