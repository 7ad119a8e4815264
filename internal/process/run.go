package process

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Paintersrp/forkexec/internal/metrics"
)

// DefaultProgram is the image the duplicate replaces itself with.
const DefaultProgram = "ls"

// Options configures Run.
type Options struct {
	// Spawner creates the duplicate. Nil uses a zero Spawner.
	Spawner *Spawner
	// Program replaces the duplicate's image. Empty means DefaultProgram.
	Program string
	Args    []string

	// Stdout receives the announcement lines.
	Stdout io.Writer
	Logger logrus.FieldLogger
}

// Run performs one launch: duplicate, replace the duplicate's image with the
// program, and wait for it in the original.
//
// In the duplicate Run only returns when replacement fails. In the original it
// returns after the duplicate has terminated, with a *ChildError if it did not
// exit cleanly.
func Run(ctx context.Context, opts Options) error {
	program := opts.Program
	if program == "" {
		program = DefaultProgram
	}
	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	spawner := opts.Spawner
	if spawner == nil {
		spawner = &Spawner{}
	}

	switch res := spawner.Spawn(ctx).(type) {
	case Failed:
		metrics.RecordSpawn(false)
		log.WithError(res.Err).Error("process duplication failed")
		return res.Err

	case Child:
		pid := os.Getpid()
		fmt.Fprintf(out, "child process takes hold, its process id is %d\n", pid)
		log.WithFields(logrus.Fields{"role": RoleChild.String(), "pid": pid, "program": program}).
			Debug("replacing process image")

		report := reportWriter()
		err := Replace(program, opts.Args)
		if report != nil {
			fmt.Fprintln(report, err)
			report.Close()
		}
		log.WithFields(logrus.Fields{"role": RoleChild.String(), "pid": pid, "program": program}).
			WithError(err).Error("image replacement failed")
		return err

	case Parent:
		metrics.RecordSpawn(true)
		fmt.Fprintf(out, "parent process takes hold, its process id is %d\n", os.Getpid())
		log.WithFields(logrus.Fields{"role": RoleParent.String(), "child_pid": res.Handle.PID()}).
			Debug("waiting for child")

		term, waitErr := res.Handle.Wait()
		if !term.Ended() {
			return fmt.Errorf("wait for child: %w", waitErr)
		}
		fmt.Fprintf(out, "child process has finished the %s command\n", program)

		metrics.ObserveChild(term.Code(), term.Duration)
		entry := log.WithFields(logrus.Fields{
			"role":      RoleParent.String(),
			"child_pid": term.PID,
			"exit_code": term.Code(),
			"duration":  term.Duration,
		})
		if term.Signaled {
			entry = entry.WithField("signal", term.Signal)
		}
		if term.ReplaceFailure != "" {
			metrics.IncrementReplaceFailure()
			entry = entry.WithField("replace_failure", term.ReplaceFailure)
		}

		var result error
		if !term.Success() {
			entry.Warn("child terminated unsuccessfully")
			result = &ChildError{Termination: term}
		} else {
			entry.Info("child terminated")
		}
		if waitErr != nil {
			entry.WithError(waitErr).Warn("child output incomplete")
			if result != nil {
				return fmt.Errorf("%w; wait for child: %w", result, waitErr)
			}
			return fmt.Errorf("wait for child: %w", waitErr)
		}
		return result

	default:
		return fmt.Errorf("unexpected spawn result %T", res)
	}
}
