// Package script runs plugins written in Lua.
//
// A script defines global functions named after the capabilities it implements. Listing
// (SearchComics and ComicAlbum) is mandatory; Login, Favorites and ShapeImage are optional and
// advertised only when defined. Every function receives the source id as its last argument.
// Calls into one script are serialized; distinct scripts run independently.
package script

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/comiknet/comiknet/capability"
	"github.com/comiknet/comiknet/constant"
	"github.com/comiknet/comiknet/manifest"
	"github.com/comiknet/comiknet/source"
	libs "github.com/metafates/mangal-lua-libs"
	lua "github.com/yuin/gopher-lua"
)

var errClosed = errors.New("script plugin is unloaded")

// Plugin is a loaded Lua script.
type Plugin struct {
	name string

	mu    sync.Mutex
	state *lua.LState

	// definedMu is independent of mu so capability queries never wait for a running call.
	definedMu sync.RWMutex
	defined   map[string]bool
}

// Load compiles and runs the entry script of m found in dir. It matches lifecycle.Instantiator.
func Load(_ context.Context, m *manifest.Manifest, dir string) (any, error) {
	path := filepath.Join(dir, m.Entry)

	state := lua.NewState()
	libs.Preload(state)
	state.PreloadModule(httpModule, httpLoader(m.Name))

	if err := execute(state, path); err != nil {
		state.Close()
		return nil, fmt.Errorf("run %s: %w", m.Entry, err)
	}

	p := &Plugin{name: m.Name, state: state}
	p.scan()

	for _, fn := range []string{constant.SearchComicsFn, constant.ComicAlbumFn} {
		if !p.has(fn) {
			state.Close()
			return nil, fmt.Errorf("function %s is required but not defined in %s", fn, m.Entry)
		}
	}

	return p, nil
}

// scan records which known functions the script defines. Callers hold mu or own p exclusively.
func (p *Plugin) scan() {
	defined := make(map[string]bool)
	for _, fn := range []string{
		constant.SearchComicsFn,
		constant.ComicAlbumFn,
		constant.LoginFn,
		constant.FavoritesFn,
		constant.ShapeImageFn,
		constant.OnLoadFn,
		constant.OnUnloadFn,
	} {
		defined[fn] = p.state.GetGlobal(fn).Type() == lua.LTFunction
	}

	p.definedMu.Lock()
	p.defined = defined
	p.definedMu.Unlock()
}

func (p *Plugin) has(fn string) bool {
	p.definedMu.RLock()
	defer p.definedMu.RUnlock()
	return p.defined[fn]
}

// Supports narrows the advertised capabilities to the functions the script defines.
func (p *Plugin) Supports(n capability.Name) bool {
	switch n {
	case capability.Listing:
		return true
	case capability.Auth:
		return p.has(constant.LoginFn)
	case capability.Favorites:
		return p.has(constant.FavoritesFn)
	case capability.Image:
		return p.has(constant.ShapeImageFn)
	default:
		return false
	}
}

// call invokes global fn and returns nret results.
func (p *Plugin) call(ctx context.Context, fn string, nret int, args ...lua.LValue) ([]lua.LValue, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == nil {
		return nil, errClosed
	}

	luaFn := p.state.GetGlobal(fn)
	if luaFn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("function %s is not defined", fn)
	}

	p.state.SetContext(ctx)
	defer p.state.RemoveContext()

	if err := p.state.CallByParam(lua.P{Fn: luaFn, NRet: nret, Protect: true}, args...); err != nil {
		return nil, err
	}

	rets := make([]lua.LValue, nret)
	for i := nret; i > 0; i-- {
		rets[i-1] = p.state.Get(-1)
		p.state.Pop(1)
	}
	return rets, nil
}

// table calls fn expecting a single table result.
func (p *Plugin) table(ctx context.Context, fn string, args ...lua.LValue) (*lua.LTable, error) {
	rets, err := p.call(ctx, fn, 1, args...)
	if err != nil {
		return nil, err
	}

	table, ok := rets[0].(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%s returned %s, expected table", fn, rets[0].Type())
	}
	return table, nil
}

func (p *Plugin) OnLoad(ctx context.Context) (bool, error) {
	if !p.has(constant.OnLoadFn) {
		return true, nil
	}

	rets, err := p.call(ctx, constant.OnLoadFn, 1)
	if err != nil {
		return false, err
	}

	p.mu.Lock()
	if p.state != nil {
		p.scan()
	}
	p.mu.Unlock()

	return rets[0] == lua.LNil || lua.LVAsBool(rets[0]), nil
}

func (p *Plugin) OnUnload(ctx context.Context) error {
	var err error
	if p.has(constant.OnUnloadFn) {
		_, err = p.call(ctx, constant.OnUnloadFn, 0)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != nil {
		p.state.Close()
		p.state = nil
	}
	return err
}

func (p *Plugin) Search(ctx context.Context, src source.ID, query string, extras ...string) ([]*source.Comic, error) {
	p.mu.Lock()
	if p.state == nil {
		p.mu.Unlock()
		return nil, errClosed
	}
	extrasTable := listToTable(p.state, extras)
	p.mu.Unlock()

	table, err := p.table(ctx, constant.SearchComicsFn, lua.LString(query), extrasTable, lua.LString(src))
	if err != nil {
		return nil, err
	}
	return comicsFromTable(table, src)
}

func (p *Plugin) Album(ctx context.Context, src source.ID, id string) (*source.Album, error) {
	table, err := p.table(ctx, constant.ComicAlbumFn, lua.LString(id), lua.LString(src))
	if err != nil {
		return nil, err
	}
	return albumFromTable(table, src)
}

func (p *Plugin) Login(ctx context.Context, src source.ID, form map[string]string) (map[string]*string, error) {
	p.mu.Lock()
	if p.state == nil {
		p.mu.Unlock()
		return nil, errClosed
	}
	formTable := mapToTable(p.state, form)
	p.mu.Unlock()

	table, err := p.table(ctx, constant.LoginFn, formTable, lua.LString(src))
	if err != nil {
		return nil, err
	}
	return cookiesFromTable(table), nil
}

func (p *Plugin) Favorites(ctx context.Context, src source.ID, cookies map[string]string, page int) ([]*source.Comic, error) {
	p.mu.Lock()
	if p.state == nil {
		p.mu.Unlock()
		return nil, errClosed
	}
	cookiesTable := mapToTable(p.state, cookies)
	p.mu.Unlock()

	table, err := p.table(ctx, constant.FavoritesFn, cookiesTable, lua.LNumber(page), lua.LString(src))
	if err != nil {
		return nil, err
	}
	return comicsFromTable(table, src)
}

func (p *Plugin) ShapeImage(ctx context.Context, src source.ID, img *source.Image) (*source.Image, error) {
	rets, err := p.call(ctx, constant.ShapeImageFn, 2, lua.LString(img.Data), lua.LString(img.ContentType), lua.LString(src))
	if err != nil {
		return nil, err
	}

	data, ok := rets[0].(lua.LString)
	if !ok {
		return nil, fmt.Errorf("%s returned %s, expected string", constant.ShapeImageFn, rets[0].Type())
	}

	shaped := &source.Image{Data: []byte(data), ContentType: img.ContentType, Meta: img.Meta}
	if contentType, ok := rets[1].(lua.LString); ok && contentType != "" {
		shaped.ContentType = string(contentType)
	}
	return shaped, nil
}
