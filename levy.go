/*
Package levy holds application level constants and shared resources for
the levy section analysis tools.
*/
package levy

const (
	ShortDateFormat = "2006-01-02"

	// QueueName prefixes the jobs that the shared queue runs.
	QueueName = "levy.service"

	// DefaultQueueSize bounds the number of pending jobs in the local
	// queue.
	DefaultQueueSize = 1024

	DefaultServicePort = 3000
)

// BuildRevision stores the commit in the git repository at build time and is
// specified with -ldflags at build time.
var BuildRevision = ""
