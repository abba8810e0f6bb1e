package syshotkey

import "golang.design/x/hotkey"

// Alt is Mod1 under X11.
const modAlt = hotkey.Mod1
