package templates

import (
	"bytes"

	"github.com/valyala/quicktemplate"
)

type hook struct {
	method string
	field  string
	sig    string
	doc    string
}

var hooks = []hook{
	{"Peek", "onItem", "func(T)", "invokes fn with each item before it is delivered downstream"},
	{"DoOnItem", "onItem", "func(T)", "invokes fn with each item before it is delivered downstream"},
	{"DoAfterItem", "afterItem", "func(T)", "invokes fn with each item after it was delivered downstream"},
	{"DoOnError", "onError", "func(error)", "invokes fn with the error before it is delivered downstream"},
	{"DoAfterError", "afterError", "func(error)", "invokes fn with the error after it was delivered downstream"},
	{"DoOnComplete", "onComplete", "func()", "invokes fn before completion is delivered downstream"},
	{"DoAfterComplete", "afterComplete", "func()", "invokes fn after completion was delivered downstream"},
	{"DoOnCancel", "onCancel", "func()", "invokes fn when the downstream cancels this stage"},
	{"DoOnTerminate", "onTerminate", "func()", "invokes fn before the stage terminates for any reason:\n// error, completion or cancel"},
	{"DoAfterTerminate", "afterTerminate", "func()", "invokes fn after the stage terminated for any reason:\n// error, completion or cancel"},
}

// PeekGen renders the committed stream/peek_gen.go wrapper file.
func PeekGen() string {
	buf := &bytes.Buffer{}
	qw := quicktemplate.AcquireWriter(buf)
	defer quicktemplate.ReleaseWriter(qw)
	n := qw.N()

	n.S("// Code generated by cmd/codegen. DO NOT EDIT.\n\n")
	n.S("package stream\n")
	for _, h := range hooks {
		opName := lowerFirst(h.method)
		n.S("\n// ")
		n.S(h.method)
		n.S(" ")
		n.S(h.doc)
		n.S(".\nfunc (s *Stream[T]) ")
		n.S(h.method)
		n.S("(fn ")
		n.S(h.sig)
		n.S(") *Stream[T] {\n")
		n.S("\treturn peek(s, \"")
		n.S(opName)
		n.S("\", peekCallbacks[T]{")
		n.S(h.field)
		n.S(": fn})\n}\n")
	}
	return buf.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]|0x20) + s[1:]
}
