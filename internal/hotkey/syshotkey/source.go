// Package syshotkey registers a hotkey.Chord with the operating system.
package syshotkey

import (
	"fmt"
	"sync"

	"golang.design/x/hotkey"

	chord "wismass.com/chatlog-combiner/internal/hotkey"
)

// Source implements chord.Source on top of the OS hotkey facility.
type Source struct {
	mods []hotkey.Modifier
	key  hotkey.Key

	mu      sync.Mutex
	hk      *hotkey.Hotkey
	stop    chan struct{}
	presses chan struct{}
}

func New(c chord.Chord) (*Source, error) {
	key, ok := systemKey(c.Key)
	if !ok {
		return nil, fmt.Errorf("unsupported key %q", c.Key)
	}
	var mods []hotkey.Modifier
	if c.Ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if c.Shift {
		mods = append(mods, hotkey.ModShift)
	}
	if c.Alt {
		mods = append(mods, modAlt)
	}
	return &Source{mods: mods, key: key, presses: make(chan struct{}, 1)}, nil
}

func (s *Source) Register() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hk := hotkey.New(s.mods, s.key)
	if err := hk.Register(); err != nil {
		return err
	}
	s.hk = hk
	s.stop = make(chan struct{})
	go forward(hk.Keydown(), s.presses, s.stop)
	return nil
}

func (s *Source) Unregister() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hk == nil {
		return nil
	}
	close(s.stop)
	err := s.hk.Unregister()
	s.hk = nil
	return err
}

func (s *Source) Presses() <-chan struct{} {
	return s.presses
}

// forward collapses bursts of key-down events: a press arriving while one
// is still unconsumed is dropped.
func forward(keydown <-chan hotkey.Event, presses chan<- struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case _, ok := <-keydown:
			if !ok {
				return
			}
			select {
			case presses <- struct{}{}:
			default:
			}
		}
	}
}

func systemKey(k string) (hotkey.Key, bool) {
	key, ok := systemKeys[k]
	return key, ok
}

var systemKeys = map[string]hotkey.Key{
	"a": hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC, "d": hotkey.KeyD,
	"e": hotkey.KeyE, "f": hotkey.KeyF, "g": hotkey.KeyG, "h": hotkey.KeyH,
	"i": hotkey.KeyI, "j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO, "p": hotkey.KeyP,
	"q": hotkey.KeyQ, "r": hotkey.KeyR, "s": hotkey.KeyS, "t": hotkey.KeyT,
	"u": hotkey.KeyU, "v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3, "f4": hotkey.KeyF4,
	"f5": hotkey.KeyF5, "f6": hotkey.KeyF6, "f7": hotkey.KeyF7, "f8": hotkey.KeyF8,
	"f9": hotkey.KeyF9, "f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
	"space": hotkey.KeySpace,
	"enter": hotkey.KeyReturn,
}
