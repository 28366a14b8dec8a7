package storage

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// cleanupLoop runs Cleanup on a medium on every tick until stopped.
type cleanupLoop struct {
	stopCh   chan struct{}
	done     chan struct{}
	once     sync.Once
	stopTick func()
}

// startCleanupLoop calls c.Cleanup every time tickCh fires. stopTick, if
// not nil, is called when the loop stops so the caller's ticker is released.
func startCleanupLoop(c Cleaner, tickCh <-chan time.Time, stopTick func()) *cleanupLoop {
	l := &cleanupLoop{
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		stopTick: stopTick,
	}
	go func() {
		defer close(l.done)
		for {
			select {
			case <-tickCh:
				if err := c.Cleanup(); err != nil {
					log.Error().Err(err).Msg("error cleaning up the storage medium")
					continue
				}
				log.Debug().Msg("cleaned up the storage medium")
			case <-l.stopCh:
				return
			}
		}
	}()
	return l
}

// stop ends the loop and waits for a running Cleanup to return, so the
// medium can be closed safely afterwards.
func (l *cleanupLoop) stop() {
	l.once.Do(func() {
		close(l.stopCh)
		if l.stopTick != nil {
			l.stopTick()
		}
	})
	<-l.done
}
