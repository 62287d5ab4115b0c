package custom

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/yato-cli/yato/provider"
	lua "github.com/yuin/gopher-lua"
)

func getString(table *lua.LTable, key string) string {
	val := table.RawGetString(key)
	switch val.Type() {
	case lua.LTString:
		return val.String()
	case lua.LTNumber:
		// Scripts often write quality = 1080.
		return val.String()
	default:
		return ""
	}
}

func requestToTable(L *lua.LState, req provider.Request) *lua.LTable {
	table := L.NewTable()
	table.RawSetString("anilist_id", lua.LNumber(req.SeriesID))
	table.RawSetString("mal_id", lua.LNumber(req.MalID))
	table.RawSetString("episode", lua.LNumber(req.Episode))
	table.RawSetString("title", lua.LString(req.Title))
	table.RawSetString("quality", lua.LString(req.Quality))
	table.RawSetString("track", lua.LString(req.Track))
	table.RawSetString("language", lua.LString(req.Language))
	return table
}

func videoFromTable(table *lua.LTable) (provider.Video, error) {
	url := getString(table, "url")
	if url == "" {
		return provider.Video{}, errors.New("video must have url")
	}

	return provider.Video{
		URL:     url,
		Quality: getString(table, "quality"),
	}, nil
}

// videosFromTable reads the array part of table. Malformed entries are skipped
// unless nothing usable remains.
func videosFromTable(table *lua.LTable) ([]provider.Video, error) {
	var (
		videos []provider.Video
		errs   *multierror.Error
	)

	for i := 1; i <= table.Len(); i++ {
		entry, ok := table.RawGetInt(i).(*lua.LTable)
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("entry %d is not a table", i))
			continue
		}

		video, err := videoFromTable(entry)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		videos = append(videos, video)
	}

	if len(videos) == 0 && errs.ErrorOrNil() != nil {
		return nil, errs
	}

	return videos, nil
}
