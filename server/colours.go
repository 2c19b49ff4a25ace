package server

import (
	"fmt"
	"strconv"
)

const (
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[90m" // Bright black, often appears as gray

	ResetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET":    Green,
	"POST":   Blue,
	"PUT":    Cyan,
	"DELETE": Yellow,
	"PATCH":  Magenta,
}

// colourMethod pads method and wraps it in its colour. Unknown methods are gray.
func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// colourStatus picks a colour for an HTTP status code.
func colourStatus(code int) string {
	switch {
	case code >= 500:
		return Red + strconv.Itoa(code) + ResetColor
	case code >= 400:
		return Yellow + strconv.Itoa(code) + ResetColor
	default:
		return Green + strconv.Itoa(code) + ResetColor
	}
}
