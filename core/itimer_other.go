//go:build unix && !linux

package core

func newIntervalTimer() (Timer, error) {
	return nil, ErrTimerUnsupported
}
