// Package custom runs Lua provider scripts that resolve episodes to stream links.
package custom

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	libs "github.com/metafates/mangal-lua-libs"
	"github.com/yato-cli/yato/constant"
	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/provider"
	"github.com/yato-cli/yato/util"
	"github.com/yato-cli/yato/where"
	lua "github.com/yuin/gopher-lua"
)

// Provider is one loaded Lua script. A Lua state is not safe for concurrent
// use, so calls are serialized.
type Provider struct {
	name  string
	mu    sync.Mutex
	state *lua.LState
}

// Load executes the script at path and checks that it defines ResolveEpisode.
func Load(path string) (*Provider, error) {
	state := lua.NewState()
	libs.Preload(state)
	registerTLSClient(state)

	if err := execute(state, path); err != nil {
		state.Close()
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	name := util.FileStem(path)
	if state.GetGlobal(constant.ResolveEpisodeFn).Type() != lua.LTFunction {
		state.Close()
		return nil, fmt.Errorf("function %s is required but not defined in %s", constant.ResolveEpisodeFn, name)
	}

	return &Provider{name: name, state: state}, nil
}

// Name is the script's file stem, which is also its language.
func (p *Provider) Name() string {
	return p.name
}

// Close releases the Lua state.
func (p *Provider) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Close()
}

// Resolve calls ResolveEpisode and picks the video matching the requested quality.
func (p *Provider) Resolve(ctx context.Context, req provider.Request) (string, error) {
	videos, err := p.Videos(ctx, req)
	if err != nil {
		return "", err
	}

	video, ok := provider.PickQuality(videos, req.Quality)
	if !ok {
		return "", fmt.Errorf("%s returned no videos for episode %d", p.name, req.Episode)
	}

	log.Debugf("%s: episode %d resolved to %s (%s)", p.name, req.Episode, video.URL, video.Quality)
	return video.URL, nil
}

// Videos returns every candidate the script produced for req.
func (p *Provider) Videos(ctx context.Context, req provider.Request) ([]provider.Video, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state.SetContext(ctx)
	defer p.state.RemoveContext()

	ret, err := p.call(constant.ResolveEpisodeFn, lua.LTTable, requestToTable(p.state, req))
	if err != nil {
		return nil, err
	}

	return videosFromTable(ret.(*lua.LTable))
}

func (p *Provider) call(fn string, retType lua.LValueType, args ...lua.LValue) (lua.LValue, error) {
	luaFn := p.state.GetGlobal(fn)
	if luaFn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("function %s is not defined", fn)
	}

	err := p.state.CallByParam(lua.P{
		Fn:      luaFn,
		NRet:    1,
		Protect: true,
	}, args...)
	if err != nil {
		return nil, err
	}

	ret := p.state.Get(-1)
	p.state.Pop(1)

	if ret.Type() != retType {
		return nil, fmt.Errorf("%s returned %s, expected %s", fn, ret.Type(), retType)
	}

	return ret, nil
}

// lazy loads its script on first use so that a broken provider only fails
// the sessions that need it.
type lazy struct {
	path string
	once sync.Once
	p    *Provider
	err  error
}

func (l *lazy) Resolve(ctx context.Context, req provider.Request) (string, error) {
	l.once.Do(func() {
		l.p, l.err = Load(l.path)
	})
	if l.err != nil {
		return "", l.err
	}
	return l.p.Resolve(ctx, req)
}

// Discover registers every script in where.Providers() under its file stem.
func Discover(registry *provider.Registry) ([]string, error) {
	files, err := filesystem.API().ReadDir(where.Providers())
	if err != nil {
		return nil, err
	}

	var languages []string
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".lua" {
			continue
		}

		language := util.FileStem(f.Name())
		registry.Register(language, &lazy{path: filepath.Join(where.Providers(), f.Name())})
		languages = append(languages, language)
	}

	return languages, nil
}
