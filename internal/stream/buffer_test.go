package stream

import (
	"sync"
	"testing"
	"time"
)

func TestBuffer_PushDrain(t *testing.T) {
	buf := NewBuffer[int](10)

	for i := 0; i < 5; i++ {
		if !buf.Push(i) {
			t.Fatalf("Push(%d) returned false", i)
		}
	}
	if buf.Len() != 5 {
		t.Errorf("Len() = %d, want 5", buf.Len())
	}

	got := buf.Drain()
	if len(got) != 5 {
		t.Fatalf("Drain() returned %d items, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Errorf("drained[%d] = %d, want %d", i, v, i)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("Len() = %d after drain, want 0", buf.Len())
	}
	if buf.Drain() != nil {
		t.Error("second Drain() should return nil")
	}
}

func TestBuffer_GrowAt70Percent(t *testing.T) {
	buf := NewBuffer[int](10)

	for i := 0; i < 7; i++ {
		buf.Push(i)
	}

	stats := buf.Stats()
	if stats.Capacity <= 10 {
		t.Errorf("Capacity = %d, expected growth after 70%% fill", stats.Capacity)
	}
	if stats.Resizes != 1 {
		t.Errorf("Resizes = %d, want 1", stats.Resizes)
	}

	// Order survives the grow.
	for i, v := range buf.Drain() {
		if v != i {
			t.Errorf("drained[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestBuffer_MultipleGrows(t *testing.T) {
	buf := NewBuffer[int](4)

	for i := 0; i < 100; i++ {
		if !buf.Push(i) {
			t.Fatalf("Push(%d) returned false", i)
		}
	}

	stats := buf.Stats()
	if stats.Count != 100 {
		t.Errorf("Count = %d, want 100", stats.Count)
	}
	if stats.Resizes < 3 {
		t.Errorf("Resizes = %d, expected at least 3", stats.Resizes)
	}

	for i, v := range buf.Drain() {
		if v != i {
			t.Errorf("drained[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestBuffer_WrapAroundGrow(t *testing.T) {
	buf := NewBuffer[int](8)

	// Advance head so the ring wraps before growing.
	for i := 0; i < 4; i++ {
		buf.Push(i)
	}
	buf.Drain()
	for i := 10; i < 17; i++ {
		buf.Push(i)
	}

	got := buf.Drain()
	for i, v := range got {
		if v != 10+i {
			t.Errorf("drained[%d] = %d, want %d", i, v, 10+i)
		}
	}
}

func TestBuffer_BlockingPop(t *testing.T) {
	buf := NewBuffer[int](10)
	received := make(chan int, 1)

	go func() {
		if v, ok := buf.Pop(); ok {
			received <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	buf.Push(42)

	select {
	case v := <-received:
		if v != 42 {
			t.Errorf("received %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake on Push")
	}
}

func TestBuffer_CloseUnblocksPop(t *testing.T) {
	buf := NewBuffer[int](10)
	done := make(chan bool, 1)

	go func() {
		_, ok := buf.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	buf.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Pop returned ok on a closed empty buffer")
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not wake on Close")
	}

	if buf.Push(1) {
		t.Error("Push succeeded after Close")
	}
}

func TestBuffer_ConcurrentPushers(t *testing.T) {
	buf := NewBuffer[int](4)
	var wg sync.WaitGroup

	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				buf.Push(i)
			}
		}()
	}
	wg.Wait()

	if got := buf.Len(); got != 800 {
		t.Errorf("Len() = %d, want 800", got)
	}
}
