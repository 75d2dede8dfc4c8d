package runtime

import (
	"regexp"
	"strings"
)

// compileRegex turns a /pattern/flags literal's raw lexed source (the
// lexer's tokRegex text omits the opening slash: "pattern/flags") into a
// compiled RegexValue. The only flag given Go regexp semantics is "i"
// (case-insensitive); others are accepted and carried in Source but
// otherwise ignored, since the target library has no direct equivalent.
func (e *Evaluator) compileRegex(raw string, line int) (*Value, error) {
	end := strings.LastIndex(raw, "/")
	pattern := raw[:end]
	flags := raw[end+1:]

	if strings.Contains(flags, "i") {
		pattern = "(?i)" + pattern
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return nil, newRuntimeError(ErrKindValue, line, "invalid regex /%s: %s", raw, err)
	}
	return NewRegex(&RegexValue{Source: "/" + raw, Compiled: compiled}), nil
}
