package operations

import (
	"context"

	"github.com/crunchsb/levy"
	"github.com/crunchsb/levy/rest"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

// Service returns the ./levy service command, which starts the REST
// analysis API.
func Service() cli.Command {
	return cli.Command{
		Name:  "service",
		Usage: "run the levy analysis api service",
		Flags: mergeFlags(analysisFlags(), sweepFlags(), baseFlags(
			cli.IntFlag{
				Name:   joinFlagNames(servicePortFlag, "p"),
				Usage:  "specify a port to run the service on",
				Value:  levy.DefaultServicePort,
				EnvVar: "LEVY_SERVICE_PORT",
			})),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			conf, err := resolveConfiguration(c)
			if err != nil {
				return errors.WithStack(err)
			}

			env, err := configureEnvironment(conf)
			if err != nil {
				return errors.WithStack(err)
			}

			service := &rest.Service{
				Port:        c.Int(servicePortFlag),
				Prefix:      "rest",
				Environment: env,
			}

			if err = service.Validate(); err != nil {
				return errors.Wrap(err, "problem validating service")
			}

			grip.Noticef("starting levy service on :%d", service.Port)
			if err = service.Start(ctx); err != nil {
				return errors.Wrap(err, "problem running service")
			}

			grip.Info("completed service, terminating.")
			return nil
		},
	}
}
