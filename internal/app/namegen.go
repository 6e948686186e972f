package app

import "math/rand"

const (
	nameLetters = 5
	nameDigits  = 3
)

// randomName builds a guest name of 5 lowercase letters followed by 3 digits,
// sampling each alphabet without replacement (e.g. "valid123"). Uniqueness
// within the session is still checked by the caller.
func randomName(rnd *rand.Rand) string {
	letters := []byte("abcdefghijklmnopqrstuvwxyz")
	digits := []byte("0123456789")

	name := make([]byte, 0, nameLetters+nameDigits)
	for i := 0; i < nameLetters; i++ {
		pos := rnd.Intn(len(letters))
		name = append(name, letters[pos])
		letters = append(letters[:pos], letters[pos+1:]...)
	}
	for i := 0; i < nameDigits; i++ {
		pos := rnd.Intn(len(digits))
		name = append(name, digits[pos])
		digits = append(digits[:pos], digits[pos+1:]...)
	}
	return string(name)
}
