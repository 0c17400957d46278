package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/vkdemos/engine/keys"
	"github.com/stretchr/testify/assert"
)

func TestKeyCodesMatchGLFW(t *testing.T) {
	cases := map[keys.Key]glfw.Key{
		keys.Space:      glfw.KeySpace,
		keys.Minus:      glfw.KeyMinus,
		keys.Equal:      glfw.KeyEqual,
		keys.B:          glfw.KeyB,
		keys.L:          glfw.KeyL,
		keys.Escape:     glfw.KeyEscape,
		keys.Right:      glfw.KeyRight,
		keys.Left:       glfw.KeyLeft,
		keys.Down:       glfw.KeyDown,
		keys.Up:         glfw.KeyUp,
		keys.KPSubtract: glfw.KeyKPSubtract,
		keys.KPAdd:      glfw.KeyKPAdd,
	}
	for k, g := range cases {
		assert.Equal(t, uint32(g), uint32(k))
	}
}
