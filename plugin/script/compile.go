package script

import (
	"bytes"
	"crypto/sha256"
	"sync"

	"github.com/comiknet/comiknet/filesystem"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// bytecode holds compiled prototypes keyed by script content.
var bytecode sync.Map

func compile(path string) (*lua.FunctionProto, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, err
	}

	key := sha256.Sum256(append([]byte(path+"\x00"), data...))
	if cached, ok := bytecode.Load(key); ok {
		return cached.(*lua.FunctionProto), nil
	}

	chunk, err := parse.Parse(bytes.NewReader(data), path)
	if err != nil {
		return nil, err
	}

	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, err
	}

	bytecode.Store(key, proto)
	return proto, nil
}

// execute runs the script at path inside L, defining its globals.
func execute(L *lua.LState, path string) error {
	proto, err := compile(path)
	if err != nil {
		return err
	}

	L.Push(L.NewFunctionFromProto(proto))
	return L.PCall(0, lua.MultRet, nil)
}
