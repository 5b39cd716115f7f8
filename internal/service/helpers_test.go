package service

import (
	"strings"
	"sync"
	"time"
)

// fakeCipher prefixes instead of encrypting so tests can assert both sides.
type fakeCipher struct{}

func (fakeCipher) Obscure(owner int64, plaintext string) (string, error) {
	return "enc:" + plaintext, nil
}

func (fakeCipher) Reveal(owner int64, opaque string) (string, error) {
	return strings.TrimPrefix(opaque, "enc:"), nil
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

func clockAt(day string) fixedClock {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return fixedClock{t: t}
}

// scriptedRoll replays a fixed sequence of rolls, then repeats the last one.
type scriptedRoll struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func rolls(values ...float64) *scriptedRoll {
	return &scriptedRoll{values: values}
}

func (r *scriptedRoll) Roll() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.values) {
		return r.values[len(r.values)-1]
	}
	v := r.values[r.next]
	r.next++
	return v
}
