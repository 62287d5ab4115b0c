package player

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/yato-cli/yato/player/mpvtest"
)

func eventually(check func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if check() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return check()
}

func TestGetProperty(t *testing.T) {
	ctx := context.Background()

	Convey("Given a player answering time-pos", t, func() {
		srv := lo.Must(mpvtest.NewServer(mpvtest.Properties(map[string]any{"time-pos": 83.25, "media-title": "x"})))
		defer srv.Close()
		client := NewClient(srv.Path)

		Convey("Then the numeric data is returned", func() {
			value, err := client.GetProperty(ctx, "time-pos")
			So(err, ShouldBeNil)
			So(value, ShouldEqual, 83.25)
			So(srv.Commands()[0], ShouldResemble, []any{"get_property", "time-pos"})
		})

		Convey("Then an mpv error is a ProtocolError", func() {
			_, err := client.GetProperty(ctx, "duration")
			var protocol *ProtocolError
			So(errors.As(err, &protocol), ShouldBeTrue)
			So(protocol.Message, ShouldEqual, "property unavailable")
			So(errors.Is(err, ErrPropertyUnavailable), ShouldBeTrue)
		})

		Convey("Then non-numeric data is a ProtocolError", func() {
			_, err := client.GetProperty(ctx, "media-title")
			var protocol *ProtocolError
			So(errors.As(err, &protocol), ShouldBeTrue)
		})
	})

	Convey("Given a player answering garbage", t, func() {
		srv := lo.Must(mpvtest.NewServer(func([]any) (string, bool) { return "{not json", true }))
		defer srv.Close()

		Convey("Then a ProtocolError is returned", func() {
			_, err := NewClient(srv.Path).GetProperty(ctx, "time-pos")
			var protocol *ProtocolError
			So(errors.As(err, &protocol), ShouldBeTrue)
			So(protocol.Message, ShouldBeEmpty)
		})
	})

	Convey("Given a player answering a line longer than the limit", t, func() {
		huge := `{"data":"` + strings.Repeat("a", maxLineSize) + `","error":"success"}`
		srv := lo.Must(mpvtest.NewServer(func([]any) (string, bool) { return huge, true }))
		defer srv.Close()

		Convey("Then reading stops at the limit with a ProtocolError", func() {
			_, err := NewClient(srv.Path).GetProperty(ctx, "time-pos")
			var protocol *ProtocolError
			So(errors.As(err, &protocol), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "exceeds")
		})
	})

	Convey("Given a player that interleaves events with replies", t, func() {
		srv := lo.Must(mpvtest.NewServer(func([]any) (string, bool) {
			return `{"event":"playback-restart"}` + "\n" + mpvtest.Reply(12), true
		}))
		defer srv.Close()

		Convey("Then the event line is skipped", func() {
			value, err := NewClient(srv.Path).GetProperty(ctx, "time-pos")
			So(err, ShouldBeNil)
			So(value, ShouldEqual, 12)
		})
	})

	Convey("Given no player at all", t, func() {
		client := NewClient(filepath.Join(os.TempDir(), "yato-missing.sock"))

		Convey("Then a TransportError is returned", func() {
			_, err := client.GetProperty(ctx, "time-pos")
			var transport *TransportError
			So(errors.As(err, &transport), ShouldBeTrue)
			So(transport.Op, ShouldEqual, "connect")
		})
	})
}

func TestSendCommand(t *testing.T) {
	ctx := context.Background()

	Convey("Given a player that always fails", t, func() {
		srv := lo.Must(mpvtest.NewServer(func([]any) (string, bool) { return mpvtest.Fail("error running command"), true }))
		defer srv.Close()

		Convey("When a command is sent", func() {
			_, err := NewClient(srv.Path).SendCommand(ctx, "loadfile", "https://example.com/a.m3u8")

			Convey("Then it gives up after three attempts", func() {
				var failed *CommandFailedError
				So(errors.As(err, &failed), ShouldBeTrue)
				So(failed.Attempts, ShouldEqual, 3)
				So(len(srv.Commands()), ShouldEqual, 3)

				var protocol *ProtocolError
				So(errors.As(err, &protocol), ShouldBeTrue)
			})
		})
	})

	Convey("Given a player that succeeds", t, func() {
		srv := lo.Must(mpvtest.NewServer(func([]any) (string, bool) { return mpvtest.Reply("ok"), true }))
		defer srv.Close()

		Convey("Then the command is sent exactly once", func() {
			data, err := NewClient(srv.Path).SendCommand(ctx, "quit")
			So(err, ShouldBeNil)
			So(string(data), ShouldEqual, `"ok"`)
			So(len(srv.Commands()), ShouldEqual, 1)
		})
	})

	Convey("Given a player that fails twice before succeeding", t, func() {
		var calls atomic.Int32
		srv := lo.Must(mpvtest.NewServer(func([]any) (string, bool) {
			if calls.Add(1) <= 2 {
				return "", false
			}
			return mpvtest.Reply(nil), true
		}))
		defer srv.Close()

		Convey("Then the third attempt wins", func() {
			start := time.Now()
			_, err := NewClient(srv.Path).SendCommand(ctx, "quit")
			So(err, ShouldBeNil)
			So(calls.Load(), ShouldEqual, 3)
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 2*commandDelay)
		})
	})
}

func TestProbes(t *testing.T) {
	ctx := context.Background()

	Convey("Given a player with nothing loaded", t, func() {
		srv := lo.Must(mpvtest.NewServer(mpvtest.Properties(map[string]any{"idle-active": true, "pid": 4242})))
		defer srv.Close()
		client := NewClient(srv.Path)

		Convey("Then playback is inactive but the player is alive", func() {
			active, err := client.HasActivePlayback(ctx)
			So(err, ShouldBeNil)
			So(active, ShouldBeFalse)

			alive, err := client.IsAlive(ctx)
			So(err, ShouldBeNil)
			So(alive, ShouldBeTrue)
		})

		Convey("Then the idle probe reads true and the eof probe falls back to false", func() {
			So(client.IsIdle(ctx), ShouldBeTrue)
			So(client.IsEOF(ctx), ShouldBeFalse)
		})
	})

	Convey("Given a player that is playing", t, func() {
		srv := lo.Must(mpvtest.NewServer(mpvtest.Properties(map[string]any{"time-pos": 1.5, "pause": true})))
		defer srv.Close()
		client := NewClient(srv.Path)

		Convey("Then playback is active", func() {
			active, err := client.HasActivePlayback(ctx)
			So(err, ShouldBeNil)
			So(active, ShouldBeTrue)

			paused, err := client.GetPausedStatus(ctx)
			So(err, ShouldBeNil)
			So(paused, ShouldBeTrue)
		})
	})

	Convey("Given a player that is gone", t, func() {
		client := NewClient(filepath.Join(os.TempDir(), "yato-gone.sock"))

		Convey("Then the liveness probe fails with a TransportError", func() {
			_, err := client.HasActivePlayback(ctx)
			var transport *TransportError
			So(errors.As(err, &transport), ShouldBeTrue)

			alive, err := client.IsAlive(ctx)
			So(alive, ShouldBeFalse)
			So(err, ShouldNotBeNil)
		})

		Convey("Then the advisory probes read false", func() {
			So(client.IsIdle(ctx), ShouldBeFalse)
			So(client.IsEOF(ctx), ShouldBeFalse)
		})
	})

	Convey("Given a player slower than the probe timeout", t, func() {
		srv := lo.Must(mpvtest.NewServer(func([]any) (string, bool) {
			time.Sleep(3 * probeTimeout)
			return mpvtest.Reply(true), true
		}))
		defer srv.Close()

		Convey("Then the advisory probes read false", func() {
			So(NewClient(srv.Path).IsEOF(ctx), ShouldBeFalse)
		})
	})
}

func TestWrites(t *testing.T) {
	ctx := context.Background()

	Convey("Given a player", t, func() {
		props := map[string]any{}
		srv := lo.Must(mpvtest.NewServer(mpvtest.Properties(props)))
		defer srv.Close()
		client := NewClient(srv.Path)

		Convey("When seeking", func() {
			So(client.SeekAbsolute(ctx, 89.5), ShouldBeNil)

			Convey("Then an absolute seek is written", func() {
				So(eventually(func() bool { return len(srv.Commands()) == 1 }), ShouldBeTrue)
				So(srv.Commands()[0], ShouldResemble, []any{"seek", 89.5, "absolute"})
			})
		})

		Convey("When the title is set", func() {
			So(client.SetTitle(ctx, "Frieren\n - Episode 3"), ShouldBeNil)

			Convey("Then both title properties are written", func() {
				So(eventually(func() bool { return len(srv.Commands()) == 2 }), ShouldBeTrue)
				So(srv.Commands()[0], ShouldResemble, []any{"set_property", "title", "Frieren  - Episode 3"})
				So(srv.Commands()[1], ShouldResemble, []any{"set_property", "force-media-title", "Frieren  - Episode 3"})
			})
		})

		Convey("When chapters are set", func() {
			So(client.SetChapters(ctx, []Chapter{{Title: "Opening", Time: 10}}), ShouldBeNil)

			Convey("Then the chapter list is written", func() {
				So(eventually(func() bool { return len(srv.Commands()) == 1 }), ShouldBeTrue)
				So(srv.Commands()[0][1], ShouldEqual, "chapter-list")
			})
		})

		Convey("When a file is loaded", func() {
			So(client.LoadFile(ctx, "https://cdn.example.com/ep4.m3u8"), ShouldBeNil)

			Convey("Then it replaces the current file", func() {
				So(srv.Commands()[0], ShouldResemble, []any{"loadfile", "https://cdn.example.com/ep4.m3u8", "replace"})
			})
		})

		Convey("When a flag-like target is loaded", func() {
			err := client.LoadFile(ctx, "--script=evil.lua")

			Convey("Then nothing is sent", func() {
				So(err, ShouldNotBeNil)
				So(srv.Commands(), ShouldBeEmpty)
			})
		})
	})
}

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("Given candidate media targets", t, func() {
		valid := []string{"https://a.example/b.mp4", "http://a.example/b", "file:///tmp/a.mkv", "/videos/a.mkv"}
		invalid := []string{"", "-x", "ftp://a.example/b", "https://a.example/\nb", "javascript://x"}

		for _, target := range valid {
			_, err := sanitizeMediaTarget(target)
			So(err, ShouldBeNil)
		}

		for _, target := range invalid {
			_, err := sanitizeMediaTarget(target)
			So(err, ShouldNotBeNil)
		}
	})
}

func TestBuildArgs(t *testing.T) {
	Convey("Given a socket, user args and a target", t, func() {
		args := buildArgs("/tmp/yato/mpv-1.sock", []string{"--fs"}, "https://a.example/b.m3u8")

		Convey("Then the IPC server is enabled and the target comes last", func() {
			So(args, ShouldContain, "--input-ipc-server=/tmp/yato/mpv-1.sock")
			So(args, ShouldContain, "--idle=yes")
			So(args, ShouldContain, "--fs")
			So(args[len(args)-2:], ShouldResemble, []string{"--", "https://a.example/b.m3u8"})
		})
	})
}

func TestCleanStale(t *testing.T) {
	Convey("Given a directory with a dead and a live socket", t, func() {
		dir := lo.Must(os.MkdirTemp("", "yato-clean"))
		defer os.RemoveAll(dir)

		dead := filepath.Join(dir, "mpv-dead.sock")
		So(os.WriteFile(dead, nil, 0o600), ShouldBeNil)

		live := filepath.Join(dir, "mpv-live.sock")
		ln := lo.Must(net.Listen("unix", live))
		defer ln.Close()

		Convey("When stale sockets are cleaned", func() {
			So(CleanStale(dir), ShouldBeNil)

			Convey("Then only the dead one is removed", func() {
				_, err := os.Stat(dead)
				So(os.IsNotExist(err), ShouldBeTrue)
				_, err = os.Stat(live)
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestNewSocketPath(t *testing.T) {
	Convey("Socket paths are fresh on every call", t, func() {
		a, b := NewSocketPath("/tmp/yato"), NewSocketPath("/tmp/yato")
		So(a, ShouldNotEqual, b)
		So(filepath.Dir(a), ShouldEqual, "/tmp/yato")
	})
}

func TestSpawnCleansStaleSockets(t *testing.T) {
	Convey("Given a socket left behind by an earlier player", t, func() {
		dir := lo.Must(os.MkdirTemp("", "yato-spawn"))
		defer os.RemoveAll(dir)

		stale := filepath.Join(dir, "mpv-crashed.sock")
		So(os.WriteFile(stale, nil, 0o600), ShouldBeNil)

		Convey("When a player is spawned in the same directory", func() {
			opts := Options{Program: filepath.Join(dir, "no-such-player"), SocketDir: dir}
			_, err := Spawn(context.Background(), opts, "https://example.com/episode.m3u8")

			Convey("Then the stale socket is gone before the player starts", func() {
				So(err, ShouldNotBeNil)
				_, statErr := os.Stat(stale)
				So(os.IsNotExist(statErr), ShouldBeTrue)
			})
		})
	})
}
