package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Word lists for readable student usernames. Kept short on purpose so the
// resulting names stay easy to type for younger students.
var adjectives = []string{
	"Agile", "Bright", "Clever", "Quick", "Sharp", "Wise", "Swift", "Keen", "Calm", "Brave",
	"Eager", "Exact", "Fair", "Fine", "Glad", "Grand", "Great", "Happy", "Jolly", "Kind",
	"Lively", "Lone", "Lucid", "Major", "Merry", "Neat", "Noble", "Prime", "Proud", "Ready",
	"Regal", "Solid", "Sound", "Stark", "Super", "Topaz", "True", "Valid", "Vivid", "Warm",
}

var nouns = []string{
	"Ant", "Ape", "Bat", "Bear", "Bee", "Bird", "Boar", "Bug", "Cat", "Cod",
	"Cow", "Crab", "Crow", "Cub", "Deer", "Dog", "Dove", "Duck", "Elk", "Emu",
	"Fish", "Flea", "Fly", "Fox", "Frog", "Gnat", "Goat", "Grub", "Hawk", "Hen",
	"Ibex", "Jay", "Lamb", "Lion", "Lark", "Mole", "Moth", "Mule", "Newt", "Owl",
	"Pig", "Puma", "Pup", "Ram", "Rat", "Seal", "Slug", "Snail", "Swan", "Tiger",
	"Toad", "Trout", "Wolf", "Worm", "Yak", "Zebra",
}

const passwordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()_+~`|}{[]:;?><,./-="

const (
	digits    = "0123456789"
	uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercase = "abcdefghijklmnopqrstuvwxyz"
)

// DefaultPasswordLength matches the length handed out on bulk provisioning
// and password resets.
const DefaultPasswordLength = 10

// GenerateUsername returns a lowercase "adjective-noun##" token with a
// two-digit suffix (10..99). Collisions are possible; uniqueness is the
// caller's job (the users table has a unique username column).
func GenerateUsername() string {
	adj := adjectives[randInt(len(adjectives))]
	noun := nouns[randInt(len(nouns))]
	num := randInt(90) + 10
	return fmt.Sprintf("%s-%s%d", strings.ToLower(adj), strings.ToLower(noun), num)
}

// GeneratePassword draws length characters from the charset, then appends a
// character for each missing class (digit, uppercase, lowercase) and trims
// back to length keeping the tail. Injected characters occupy the final
// positions, so the tail is biased toward the classes required by the
// complexity check. The result always has length characters and contains at
// least one digit, one uppercase and one lowercase letter.
func GeneratePassword(length int) string {
	if length < 4 {
		length = DefaultPasswordLength
	}
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = passwordCharset[randInt(len(passwordCharset))]
	}
	for i := 0; i < 8; i++ {
		missing := missingClasses(buf)
		if len(missing) == 0 {
			return string(buf)
		}
		buf = append(buf, missing...)
		buf = buf[len(buf)-length:]
	}
	// Trimming can only chase its own tail for very short lengths; pin the
	// three classes into the head and be done.
	buf[0] = digits[randInt(len(digits))]
	buf[1] = uppercase[randInt(len(uppercase))]
	buf[2] = lowercase[randInt(len(lowercase))]
	return string(buf)
}

func missingClasses(buf []byte) []byte {
	var out []byte
	if !strings.ContainsAny(string(buf), digits) {
		out = append(out, digits[randInt(len(digits))])
	}
	if !strings.ContainsAny(string(buf), uppercase) {
		out = append(out, uppercase[randInt(len(uppercase))])
	}
	if !strings.ContainsAny(string(buf), lowercase) {
		out = append(out, lowercase[randInt(len(lowercase))])
	}
	return out
}

// SyntheticEmail builds the system email used to satisfy the account model
// for students who sign in by username. Never a deliverable address.
func SyntheticEmail(username, className, domain string) string {
	slug := strings.ToLower(strings.TrimSpace(className))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "class"
	}
	return fmt.Sprintf("%s.%s.%02d@%s", username, slug, randInt(100), domain)
}

func randInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}
