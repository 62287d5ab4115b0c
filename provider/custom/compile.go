package custom

import (
	"bytes"
	"sync"

	"github.com/yato-cli/yato/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

type compiled struct {
	source []byte
	proto  *lua.FunctionProto
}

var prototypes sync.Map

// compile parses and compiles the script at path. Prototypes are cached per
// path and reused for as long as the file content does not change.
func compile(path string) (*lua.FunctionProto, error) {
	source, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, err
	}

	if cached, ok := prototypes.Load(path); ok {
		entry := cached.(compiled)
		if bytes.Equal(entry.source, source) {
			return entry.proto, nil
		}
	}

	chunk, err := parse.Parse(bytes.NewReader(source), path)
	if err != nil {
		return nil, err
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, err
	}

	prototypes.Store(path, compiled{source: source, proto: proto})
	return proto, nil
}

// execute runs the script's top level in L.
func execute(L *lua.LState, path string) error {
	proto, err := compile(path)
	if err != nil {
		return err
	}

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}
