package delivery

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

// SystemClipboard is the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// pasteModifier is the key held with V to paste: Command on macOS, Ctrl
// everywhere else.
type pasteModifier int

const (
	modCtrl pasteModifier = iota
	modCommand
)

func pasteModifierFor(goos string) pasteModifier {
	if goos == "darwin" {
		return modCommand
	}
	return modCtrl
}

// SystemKeyboard synthesizes paste and enter at the OS level.
type SystemKeyboard struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

func NewSystemKeyboard() (*SystemKeyboard, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual keyboard: %w", err)
	}
	// The uinput device on Linux is not usable until the kernel has
	// registered it.
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}
	return &SystemKeyboard{kb: kb}, nil
}

func (k *SystemKeyboard) Paste() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.kb.Clear()
	k.kb.SetKeys(keybd_event.VK_V)
	switch pasteModifierFor(runtime.GOOS) {
	case modCommand:
		k.kb.HasSuper(true)
	default:
		k.kb.HasCTRL(true)
	}
	return k.kb.Launching()
}

func (k *SystemKeyboard) Confirm() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.kb.Clear()
	k.kb.SetKeys(keybd_event.VK_ENTER)
	return k.kb.Launching()
}
