package executor

import (
	"testing"
	"time"
)

func TestSerial_GoRunsInOrder(t *testing.T) {
	s := NewSerial()
	defer s.Close()

	var got []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		s.Go(func() {
			got = append(got, i)
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for tasks to run")
	}

	for i, v := range got {
		if v != i {
			t.Fatalf("expected in-order execution, got %v", got)
		}
	}
}

func TestSerial_AfterFuncFiresAndCanBeStopped(t *testing.T) {
	s := NewSerial()
	defer s.Close()

	fired := make(chan struct{})
	s.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	ranAfterStop := make(chan struct{})
	timer := s.AfterFunc(50*time.Millisecond, func() { close(ranAfterStop) })
	if !timer.Stop() {
		t.Fatal("expected Stop to succeed before the timer fired")
	}

	select {
	case <-ranAfterStop:
		t.Fatal("stopped timer fired anyway")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSerial_CloseStopsFutureWork(t *testing.T) {
	s := NewSerial()
	s.Close()

	ran := false
	s.Go(func() { ran = true })
	time.Sleep(10 * time.Millisecond)
	if ran {
		t.Fatal("Go ran a function after Close")
	}
}
