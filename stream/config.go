package stream

import (
	"github.com/delaneyj/streamparty/vpu"
	"go.uber.org/zap"
)

// Config is applied process-wide. ValidateSubscriptions wraps every
// subscriber handed to SubscribeWith in a lifecycle validator. Invariant
// violations panic when the corresponding check flag is set; otherwise they
// are logged and tolerated with the protocol guarantees forfeit.
type Config struct {
	ValidateSubscriptions         bool
	CheckInvariants               bool
	CheckAPIInvariants            bool
	NamesEnabled                  bool
	PurgeTasksWhenRunawayDetected bool
	Logger                        *zap.Logger
}

func DefaultConfig() Config {
	return Config{
		ValidateSubscriptions:         true,
		CheckInvariants:               true,
		CheckAPIInvariants:            true,
		NamesEnabled:                  true,
		PurgeTasksWhenRunawayDetected: true,
		Logger:                        zap.NewNop(),
	}
}

var config = DefaultConfig()

// Configure applies c to the stream layer and mirrors the shared knobs into
// the task system.
func Configure(c Config) {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	config = c
	vpu.Configure(vpu.Config{
		CheckInvariants:               c.CheckInvariants,
		NamesEnabled:                  c.NamesEnabled,
		PurgeTasksWhenRunawayDetected: c.PurgeTasksWhenRunawayDetected,
		Logger:                        c.Logger,
	})
}

func logger() *zap.Logger {
	return config.Logger
}

var defaultUnit *vpu.Unit

// Unit returns the processor unit timed operators schedule on.
func Unit() *vpu.Unit {
	if defaultUnit == nil {
		defaultUnit = vpu.NewDefaultUnit("stream")
	}
	return defaultUnit
}

// SetUnit swaps the default processor unit, returning the previous one.
// Tests install a fresh unit to get a clock at zero.
func SetUnit(u *vpu.Unit) *vpu.Unit {
	prev := defaultUnit
	defaultUnit = u
	return prev
}

func sched() *vpu.Scheduler {
	return Unit().Scheduler()
}

func apiInvariant(ok bool, msg string) {
	if ok {
		return
	}
	if config.CheckAPIInvariants {
		panic("streamparty: " + msg)
	}
	logger().Warn(msg)
}

func invariant(ok bool, msg string) {
	if ok {
		return
	}
	if config.CheckInvariants {
		panic("streamparty: " + msg)
	}
	logger().Warn(msg)
}
