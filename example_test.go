package uthreads_test

import (
	"fmt"

	"github.com/Swind/go-uthreads"
	"github.com/Swind/go-uthreads/core"
)

// ExampleSpawn demonstrates round-robin turns with only one import.
func ExampleSpawn() {
	cfg := uthreads.DefaultSchedulerConfig(10000)
	cfg.Timer = core.NewManualTimer()
	cfg.Logger = core.NewNoOpLogger()
	cfg.ExitFunc = func(int) {}
	if err := uthreads.InitWithConfig(cfg); err != nil {
		fmt.Println(err)
		return
	}
	defer uthreads.Terminate(uthreads.MainThreadID)

	for i := 0; i < 2; i++ {
		uthreads.Spawn(func() {
			for turn := 1; turn <= 2; turn++ {
				fmt.Printf("thread %d turn %d\n", uthreads.GetTid(), turn)
				uthreads.Yield()
			}
		})
	}

	for uthreads.Default().Stats().Live > 1 {
		uthreads.Yield()
	}
	fmt.Println("total quanta:", uthreads.GetTotalQuantums())

	// Output:
	// thread 1 turn 1
	// thread 2 turn 1
	// thread 1 turn 2
	// thread 2 turn 2
	// total quanta: 10
}
