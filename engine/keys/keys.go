// Package keys holds the key codes carried by key events. The values are the
// GLFW key codes, so the platform forwards them unchanged, and packages that
// only react to keys build without the window system.
package keys

type Key uint32

const (
	Space      Key = 32
	Minus      Key = 45
	Equal      Key = 61
	B          Key = 66
	L          Key = 76
	Escape     Key = 256
	Right      Key = 262
	Left       Key = 263
	Down       Key = 264
	Up         Key = 265
	KPSubtract Key = 333
	KPAdd      Key = 334
)
