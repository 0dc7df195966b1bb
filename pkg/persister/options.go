package persister

import "time"

// Options configures key layout and locking.
type Options struct {
	Prefix       string
	LockTTL      time.Duration
	LockWait     time.Duration
	PollInterval time.Duration
}

// Option configures a persister.
type Option func(*Options)

// WithPrefix sets the key prefix shared by records and locks.
func WithPrefix(prefix string) Option {
	return func(o *Options) {
		o.Prefix = prefix
	}
}

// WithLockTTL sets how long an acquired lock survives without release.
func WithLockTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.LockTTL = ttl
	}
}

// WithLockWait bounds how long Lock waits for a held lock. Zero waits until ctx is done.
func WithLockWait(wait time.Duration) Option {
	return func(o *Options) {
		o.LockWait = wait
	}
}

// WithPollInterval sets the delay between lock acquisition attempts.
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		o.PollInterval = d
	}
}

func defaultOptions() Options {
	return Options{
		LockTTL:      30 * time.Second,
		LockWait:     5 * time.Second,
		PollInterval: 100 * time.Millisecond,
	}
}
