package common

// Key codes for cross-platform input handling. Values match GLFW, which uses
// ASCII for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW     = 87
	KeyA     = 65
	KeyS     = 83
	KeyD     = 68
	KeyQ     = 81
	KeyE     = 69
	KeySpace = 32
	KeyEsc   = 256

	Key1 = 49
	Key2 = 50
	Key3 = 51
	Key4 = 52

	KeyLeftShift  = 340
	KeyRightShift = 344
)
