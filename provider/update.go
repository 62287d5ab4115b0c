package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/yato-cli/yato/filesystem"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/network"
	"github.com/yato-cli/yato/where"
)

// ScriptPath is where the Lua provider for language lives.
func ScriptPath(language string) string {
	return filepath.Join(where.Providers(), normalize(language)+".lua")
}

// Update downloads the provider script for language from baseURL and swaps it
// in when its content differs from the installed one. It reports whether the
// script changed.
func Update(ctx context.Context, baseURL, language string) (bool, error) {
	remote := strings.TrimSuffix(baseURL, "/") + "/" + normalize(language) + ".lua"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remote, nil)
	if err != nil {
		return false, err
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		return false, fmt.Errorf("download %s: %w", remote, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("download %s: status %s", remote, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, err
	}

	path := ScriptPath(language)
	if local, err := filesystem.API().ReadFile(path); err == nil {
		remoteSum, localSum := sha256.Sum256(body), sha256.Sum256(local)
		if bytes.Equal(remoteSum[:], localSum[:]) {
			log.Infof("provider %s is up to date", language)
			return false, nil
		}
	}

	if err := filesystem.WriteAtomic(path, body); err != nil {
		return false, err
	}

	log.Infof("updated provider %s from %s", language, remote)
	return true, nil
}
