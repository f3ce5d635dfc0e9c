package levy

import (
	"context"
	"sync"

	"github.com/evergreen-ci/pail"
	"github.com/mongodb/amboy"
	"github.com/mongodb/amboy/queue"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

var globalEnv *envState

func init()                       { resetEnv() }
func GetEnvironment() Environment { return globalEnv }

func resetEnv() { globalEnv = &envState{name: "global"} }

// NewEnvironment returns an isolated environment configured with conf.
func NewEnvironment(name string, conf *Configuration) (Environment, error) {
	env := &envState{name: name}
	if err := env.Configure(conf); err != nil {
		return nil, errors.WithStack(err)
	}
	return env, nil
}

// Environment holds the configuration and the queue shared by the
// commands and the REST service. Tests build isolated ones with
// NewEnvironment instead of touching the global one.
type Environment interface {
	Configure(*Configuration) error
	GetConf() (*Configuration, error)

	// GetQueue retrieves the application's shared queue, which runs the
	// per-series analysis jobs.
	GetQueue() (amboy.Queue, error)
	// SetQueue replaces the shared queue when none has been configured.
	SetQueue(amboy.Queue) error

	// GetOutputBucket returns the bucket results are uploaded to.
	GetOutputBucket(context.Context) (pail.Bucket, error)
}

type envState struct {
	name  string
	queue amboy.Queue
	conf  *Configuration
	mutex sync.RWMutex
}

func (c *envState) Configure(conf *Configuration) error {
	if err := conf.Validate(); err != nil {
		return errors.WithStack(err)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.conf = conf
	c.queue = queue.NewLocalLimitedSize(conf.NumWorkers, DefaultQueueSize)

	grip.Info(message.Fields{
		"message": "configured local queue",
		"env":     c.name,
		"prefix":  QueueName,
		"workers": conf.NumWorkers,
	})

	return nil
}

func (c *envState) SetQueue(q amboy.Queue) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.queue != nil {
		return errors.New("queue exists, cannot overwrite")
	}

	if q == nil {
		return errors.New("cannot set queue to nil")
	}

	c.queue = q
	grip.Noticef("caching a '%T' queue in the '%s' service cache for use in jobs", q, c.name)
	return nil
}

func (c *envState) GetQueue() (amboy.Queue, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.queue == nil {
		return nil, errors.New("no queue defined in the services cache")
	}

	return c.queue, nil
}

func (c *envState) GetConf() (*Configuration, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.conf == nil {
		return nil, errors.New("configuration is not set")
	}

	// copy the struct
	out := &Configuration{}
	*out = *c.conf

	return out, nil
}

func (c *envState) GetOutputBucket(ctx context.Context) (pail.Bucket, error) {
	conf, err := c.GetConf()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !conf.HasOutputBucket() {
		return nil, errors.New("no output bucket configured")
	}

	bucket, err := conf.OutputType.Create(ctx, conf.OutputBucket, conf.OutputPrefix, conf.OutputRegion)
	return bucket, errors.Wrapf(err, "creating %s output bucket '%s'", conf.OutputType, conf.OutputBucket)
}
