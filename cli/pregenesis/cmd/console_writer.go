package cmd

import "fmt"

// consoleWriter is used to print command output, tests replace it to capture the output
var consoleWriter consoleWrapper = &stdoutWrapper{}

type (
	consoleWrapper interface {
		Println(a ...any)
		Print(a ...any)
	}

	stdoutWrapper struct{}
)

func (w *stdoutWrapper) Println(a ...any) {
	fmt.Println(a...)
}

func (w *stdoutWrapper) Print(a ...any) {
	fmt.Print(a...)
}
