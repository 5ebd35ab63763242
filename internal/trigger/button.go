package trigger

import (
	"fmt"
	"sync"
	"time"

	"github.com/cjeanneret/ScreenGo/internal/debug"
	"github.com/cjeanneret/ScreenGo/internal/hw/gpio"
)

// Button emits one tick per press of an active-low push button wired
// between a GPIO pin and ground (internal pull-up enabled).
type Button struct {
	drv  gpio.Driver
	pin  int
	poll time.Duration

	ticks chan time.Time
	done  chan struct{}
	wg    sync.WaitGroup
	once  sync.Once
}

// NewButton configures pin as a pulled-up input and starts polling it.
func NewButton(drv gpio.Driver, pin int, poll time.Duration) (*Button, error) {
	if poll <= 0 {
		return nil, fmt.Errorf("poll interval must be > 0, got %v", poll)
	}
	if err := drv.SetupPin(pin, gpio.InputPullUp); err != nil {
		return nil, fmt.Errorf("setup button pin %d: %w", pin, err)
	}

	b := &Button{
		drv:   drv,
		pin:   pin,
		poll:  poll,
		ticks: make(chan time.Time, 1),
		done:  make(chan struct{}),
	}
	b.wg.Add(1)
	go b.run()
	debug.Info("Waiting for button presses on GPIO %d", pin)
	return b, nil
}

func (b *Button) run() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()

	last := gpio.High
	for {
		select {
		case <-b.done:
			return
		case now := <-ticker.C:
			level, err := b.drv.ReadPin(b.pin)
			if err != nil {
				debug.Error(fmt.Errorf("read button pin %d: %w", b.pin, err))
				continue
			}
			if last == gpio.High && level == gpio.Low {
				debug.Live("Button pressed on GPIO %d", b.pin)
				select {
				case b.ticks <- now:
				default:
					// a press is already pending
				}
			}
			last = level
		}
	}
}

func (b *Button) C() <-chan time.Time { return b.ticks }

// Stop ends polling. It is safe to call more than once.
func (b *Button) Stop() {
	b.once.Do(func() {
		close(b.done)
		b.wg.Wait()
	})
}
