package notify

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSendOrder(t *testing.T) {
	m := New[int]("test")
	ch := make(chan int, 4)
	m.Subscribe("a", ch)
	for i := 1; i <= 3; i++ {
		m.Send(i)
	}
	got := []int{<-ch, <-ch, <-ch}
	want := []int{1, 2, 3}
	if !cmp.Equal(got, want) {
		t.Errorf("diff: %s", cmp.Diff(want, got))
	}
}

func TestFanOut(t *testing.T) {
	m := New[string]("test")
	a := make(chan string, 1)
	b := make(chan string, 1)
	m.Subscribe("a", a)
	m.Subscribe("b", b)
	m.Send("x")
	if got := <-a; got != "x" {
		t.Errorf("a got %q", got)
	}
	if got := <-b; got != "x" {
		t.Errorf("b got %q", got)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	m := New[int]("test")
	ch := make(chan int, 1)
	m.Subscribe("a", ch)
	m.Unsubscribe(ch)
	m.Send(1)
	select {
	case v := <-ch:
		t.Errorf("received %d after unsubscribe", v)
	default:
	}
}

func TestUnsubscribeUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic for unknown channel")
		}
	}()
	New[int]("test").Unsubscribe(make(chan int))
}

func TestSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	m := New[int]("test")
	full := make(chan int) // never drained
	ok := make(chan int, 1)
	m.Subscribe("full", full)
	m.Subscribe("ok", ok)
	m.Send(7)
	if got := <-ok; got != 7 {
		t.Errorf("ok got %d", got)
	}
}
