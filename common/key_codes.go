package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeySpace = 32  // Spacebar (ASCII), held to attack
	KeyR     = 82  // R key (ASCII), reload sources
	KeyTab   = 258 // Tab key (GLFW), cycle the focused viewer
	KeyEsc   = 256 // Escape key (GLFW)

	Key1 = 49 // 1 key (ASCII)
	Key2 = 50 // 2 key (ASCII)
	Key3 = 51 // 3 key (ASCII)
	Key4 = 52 // 4 key (ASCII)
)

// DigitKey returns the 1-based index selected by a digit key, or 0 for any other key.
//
// Parameters:
//   - keyCode: the virtual key code
//
// Returns:
//   - int: 1 for Key1 through 4 for Key4, otherwise 0
func DigitKey(keyCode uint32) int {
	if keyCode >= Key1 && keyCode <= Key4 {
		return int(keyCode-Key1) + 1
	}
	return 0
}
