package errwrap

import (
	"errors"
	"testing"
)

func TestAppendNil(t *testing.T) {
	if err := Append(nil, nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
	e := errors.New("boom")
	if err := Append(nil, e); err != e {
		t.Errorf("expected original error, got %v", err)
	}
	if err := Append(e, nil); err != e {
		t.Errorf("expected original error, got %v", err)
	}
}

func TestAppendCount(t *testing.T) {
	var reterr error
	for i := 0; i < 3; i++ {
		reterr = Append(reterr, errors.New("boom"))
	}
	if n := Count(reterr); n != 3 {
		t.Errorf("expected 3 errors, got %d", n)
	}
	if n := Count(nil); n != 0 {
		t.Errorf("expected 0 errors, got %d", n)
	}
}

func TestWrapfKeepsCause(t *testing.T) {
	base := errors.New("base")
	err := Wrapf(base, "context %d", 1)
	if !errors.Is(err, base) {
		t.Errorf("wrapped error lost its cause: %v", err)
	}
	if got := String(err); got != "context 1: base" {
		t.Errorf("unexpected message %q", got)
	}
	if got := String(nil); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
