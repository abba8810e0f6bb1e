package syshotkey

import "golang.design/x/hotkey"

const modAlt = hotkey.ModOption
