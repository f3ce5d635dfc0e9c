package rest

import (
	"context"

	"github.com/crunchsb/levy"
	"github.com/evergreen-ci/gimlet"
	"github.com/mongodb/amboy"
	"github.com/pkg/errors"
)

type Service struct {
	Port        int
	Prefix      string
	Environment levy.Environment

	// internal settings
	queue   amboy.Queue
	app     *gimlet.APIApp
	metrics *serviceMetrics
}

func (s *Service) Validate() error {
	var err error

	if s.Environment == nil {
		return errors.New("must specify an environment")
	}

	if s.queue == nil {
		s.queue, err = s.Environment.GetQueue()
		if err != nil {
			return errors.Wrap(err, "problem getting queue")
		}
		if s.queue == nil {
			return errors.New("no queue defined")
		}
	}

	if s.app == nil {
		s.app = gimlet.NewApp()
	}

	if s.metrics == nil {
		s.metrics = newServiceMetrics()
	}

	if s.Port == 0 {
		s.Port = levy.DefaultServicePort
	}

	if err := s.app.SetPort(s.Port); err != nil {
		return errors.WithStack(err)
	}

	if s.Prefix != "" {
		s.app.SetPrefix(s.Prefix)
	}

	return nil
}

func (s *Service) Start(ctx context.Context) error {
	if s.queue == nil || s.app == nil {
		return errors.New("application is not valid")
	}

	s.addRoutes()

	if !s.queue.Info().Started {
		if err := s.queue.Start(ctx); err != nil {
			return errors.Wrap(err, "problem starting queue")
		}
	}

	if err := s.app.Resolve(); err != nil {
		return errors.Wrap(err, "problem resolving routes")
	}

	return s.app.Run(ctx)
}

func (s *Service) addRoutes() {
	s.app.AddRoute("/status").Version(1).Get().Handler(s.statusHandler)
	s.app.AddRoute("/metrics").Version(1).Get().Handler(s.metrics.handler().ServeHTTP)

	s.app.AddRoute("/analyze").Version(1).Post().RouteHandler(makeAnalyzeHandler(s.Environment, s.metrics))
	s.app.AddRoute("/sweep").Version(1).Post().RouteHandler(makeSweepHandler(s.Environment, s.metrics))
	s.app.AddRoute("/features").Version(1).Post().RouteHandler(makeFeaturesHandler(s.Environment, s.metrics))
}
