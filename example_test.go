package minithread_test

import (
	"context"
	"fmt"
	"time"

	minithread "github.com/joeycumines/go-minithread"
)

// Example_pingPong demonstrates two threads taking turns, using semaphores.
func Example_pingPong() {
	s, err := minithread.New(minithread.WithClock(minithread.NewManualClock()))
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = s.Run(ctx, func(any) {
		ping, pong := s.NewSemaphore(0), s.NewSemaphore(0)
		if _, err := s.Fork(func(any) {
			for i := range 3 {
				_ = ping.P()
				fmt.Println(`pong`, i)
				_ = pong.V()
			}
		}, nil); err != nil {
			panic(err)
		}
		for i := range 3 {
			fmt.Println(`ping`, i)
			_ = ping.V()
			_ = pong.P()
		}
	}, nil)
	if err != nil {
		panic(err)
	}

	//output:
	//ping 0
	//pong 0
	//ping 1
	//pong 1
	//ping 2
	//pong 2
}

// Example_sleep demonstrates sleeping threads, woken by alarms.
func Example_sleep() {
	s, err := minithread.New(minithread.WithClockPeriod(time.Millisecond))
	if err != nil {
		panic(err)
	}

	err = s.Run(context.Background(), func(any) {
		for _, ms := range []int{30, 10, 20} {
			if _, err := s.Fork(func(any) {
				_ = s.SleepWithTimeout(time.Duration(ms) * time.Millisecond)
				fmt.Println(`woke after`, ms, `ms`)
			}, nil); err != nil {
				panic(err)
			}
		}
	}, nil)
	if err != nil {
		panic(err)
	}

	//output:
	//woke after 10 ms
	//woke after 20 ms
	//woke after 30 ms
}
