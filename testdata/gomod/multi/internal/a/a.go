package a

import "example.com/app/internal/b"

// Greeting returns a greeting for name.
func Greeting(name string) string {
	return "hello, " + b.Upper(name)
}
