package vpu

import "go.uber.org/zap"

// Config carries the diagnostic knobs shared by the task system. Invariant
// checks panic on violation; with checks off, violations are logged and
// tolerated but the protocol guarantees are forfeit.
type Config struct {
	CheckInvariants               bool
	NamesEnabled                  bool
	PurgeTasksWhenRunawayDetected bool
	Logger                        *zap.Logger
}

var config = Config{
	CheckInvariants:               true,
	NamesEnabled:                  true,
	PurgeTasksWhenRunawayDetected: true,
	Logger:                        zap.NewNop(),
}

func Configure(c Config) {
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	config = c
}

func CheckInvariants() bool {
	return config.CheckInvariants
}

func NamesEnabled() bool {
	return config.NamesEnabled
}

func logger() *zap.Logger {
	return config.Logger
}

func invariant(ok bool, msg string, fields ...zap.Field) {
	if ok {
		return
	}
	if config.CheckInvariants {
		panic("streamparty: " + msg)
	}
	logger().Warn(msg, fields...)
}
