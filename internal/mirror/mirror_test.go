package mirror

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/nuclear-chess/internal/archive"
	"github.com/park285/nuclear-chess/internal/display"
	"github.com/park285/nuclear-chess/internal/game"
	"github.com/park285/nuclear-chess/internal/menu"
	"github.com/park285/nuclear-chess/pkg/viewdto"
	"github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	s, err := NewStore(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func sampleFrame() display.Frame {
	var v game.View
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			v.Board[row][col] = game.Cell{Glyph: ' ', Tone: game.Tone((row + col) & 1)}
		}
	}
	v.Board[6][4] = game.Cell{Glyph: 'P', Tone: game.ToneHighlight}
	v.Times = [2]string{"00:00", "00:07"}
	v.History[0] = [2]string{"e2-e4", ""}
	v.State = game.StateSelectSecondMove
	v.Ply = 1
	v.Active = true
	return display.Frame{Game: v, Status: "Your move"}
}

func TestToDTO(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := ToDTO(sampleFrame(), now)
	if d.Rows[6] != "    P   " || d.Tones[6][4] != viewdto.ToneHighlight || d.Tones[0] != "LDLDLDLD" {
		t.Fatalf("unexpected board %q %q", d.Rows[6], d.Tones)
	}
	if len(d.History) != 1 || d.History[0][0] != "e2-e4" {
		t.Fatalf("history = %v", d.History)
	}
	if d.State != "select_second_move" || d.Ply != 1 || !d.UpdatedAt.Equal(now) || d.Menu != nil {
		t.Fatalf("unexpected dto %+v", d)
	}

	f := sampleFrame()
	f.InMenu = true
	f.Menu = []menu.Item{{Label: "Quit"}, {Label: "New game (white)"}}
	f.MenuSel = 1
	d = ToDTO(f, now)
	if len(d.Menu) != 2 || d.Menu[0].Selected || !d.Menu[1].Selected {
		t.Fatalf("menu = %+v", d.Menu)
	}
}

func TestStore_SaveLatestPublish(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if f, err := s.Latest(ctx); err != nil || f != nil {
		t.Fatalf("expected no frame, got %v %v", f, err)
	}

	sub := s.Subscribe(ctx)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	want := ToDTO(sampleFrame(), time.Now())
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Latest(ctx)
	if err != nil || got == nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Rows != want.Rows || got.Times != want.Times {
		t.Fatalf("stored frame mismatch %+v", got)
	}
	if ttl := mr.TTL(keyFrame); ttl != ttlFrame {
		t.Fatalf("ttl = %v", ttl)
	}

	select {
	case msg := <-sub.Channel():
		var f viewdto.Frame
		if err := json.Unmarshal([]byte(msg.Payload), &f); err != nil || f.Ply != want.Ply {
			t.Fatalf("published payload: %v %+v", err, f)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame published")
	}
}

func TestNewStore_Errors(t *testing.T) {
	if _, err := NewStore(context.Background(), ""); !errors.Is(err, ErrNoRedisURL) {
		t.Fatalf("expected ErrNoRedisURL, got %v", err)
	}
	if _, err := NewStore(context.Background(), "http://localhost:6379"); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestMirror_PublishForwardsToStore(t *testing.T) {
	s, _ := newTestStore(t)
	m := New(s, nil)
	m.Publish(context.Background(), sampleFrame())

	if _, ok := m.Last(); !ok {
		t.Fatalf("frame not kept in memory")
	}
	got, err := s.Latest(context.Background())
	if err != nil || got == nil || got.Status != "Your move" {
		t.Fatalf("store not updated: %v %+v", err, got)
	}
}

func serve(m *Mirror, method, path string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	m.Handler(&ctx)
	return &ctx
}

func TestMirror_Handler(t *testing.T) {
	m := New(nil, nil)

	if ctx := serve(m, "GET", "/healthz"); ctx.Response.StatusCode() != fasthttp.StatusOK || string(ctx.Response.Body()) != "ok" {
		t.Fatalf("healthz: %d %q", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if ctx := serve(m, "GET", "/view"); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("view before any frame: %d", ctx.Response.StatusCode())
	}

	m.Publish(context.Background(), sampleFrame())

	ctx := serve(m, "GET", "/view")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("view: %d", ctx.Response.StatusCode())
	}
	var f viewdto.Frame
	if err := json.Unmarshal(ctx.Response.Body(), &f); err != nil || f.Times[1] != "00:07" {
		t.Fatalf("view body: %v %+v", err, f)
	}

	ctx = serve(m, "GET", "/frame.png")
	body := ctx.Response.Body()
	if ctx.Response.StatusCode() != fasthttp.StatusOK || len(body) < 8 || string(body[1:4]) != "PNG" {
		t.Fatalf("frame.png: %d len=%d", ctx.Response.StatusCode(), len(body))
	}

	if ctx := serve(m, "POST", "/view"); ctx.Response.StatusCode() != fasthttp.StatusMethodNotAllowed {
		t.Fatalf("post: %d", ctx.Response.StatusCode())
	}
	if ctx := serve(m, "GET", "/nope"); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("unknown path: %d", ctx.Response.StatusCode())
	}
}

func TestMirror_ViewFallsBackToStore(t *testing.T) {
	s, _ := newTestStore(t)
	saved := ToDTO(sampleFrame(), time.Now())
	saved.Status = "Thinking"
	if err := s.Save(context.Background(), saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh process has shown nothing yet but the store still holds a frame.
	m := New(s, nil)
	ctx := serve(m, "GET", "/view")
	if ctx.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("view: %d", ctx.Response.StatusCode())
	}
	var f viewdto.Frame
	if err := json.Unmarshal(ctx.Response.Body(), &f); err != nil || f.Status != "Thinking" {
		t.Fatalf("view body: %v %+v", err, f)
	}

	m.Publish(context.Background(), sampleFrame())
	ctx = serve(m, "GET", "/view")
	if err := json.Unmarshal(ctx.Response.Body(), &f); err != nil || f.Status != "Your move" {
		t.Fatalf("in-memory frame must win: %v %+v", err, f)
	}
}

func TestMirror_EventsWithoutStore(t *testing.T) {
	m := New(nil, nil)
	if ctx := serve(m, "GET", "/events"); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("events without store: %d", ctx.Response.StatusCode())
	}
}

func TestWriteEvents(t *testing.T) {
	msgs := make(chan *redis.Message, 2)
	msgs <- &redis.Message{Channel: channelFrame, Payload: `{"ply":1}`}
	msgs <- &redis.Message{Channel: channelFrame, Payload: `{"ply":2}`}
	close(msgs)

	var buf bytes.Buffer
	if err := writeEvents(bufio.NewWriter(&buf), msgs, nil, time.Hour); err != nil {
		t.Fatalf("writeEvents: %v", err)
	}
	want := "event: frame\ndata: {\"ply\":1}\n\nevent: frame\ndata: {\"ply\":2}\n\n"
	if buf.String() != want {
		t.Fatalf("stream = %q", buf.String())
	}

	done := make(chan struct{})
	close(done)
	buf.Reset()
	if err := writeEvents(bufio.NewWriter(&buf), make(chan *redis.Message), done, time.Hour); err != nil || buf.Len() != 0 {
		t.Fatalf("closed done must end the stream: %v %q", err, buf.String())
	}
}

func TestWriteEvents_FromStore(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	sub := s.Subscribe(ctx)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	pr, pw := io.Pipe()
	done := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- writeEvents(bufio.NewWriter(pw), sub.Channel(), done, time.Hour)
		_ = pw.Close()
	}()

	if err := s.Save(ctx, ToDTO(sampleFrame(), time.Now())); err != nil {
		t.Fatalf("save: %v", err)
	}

	r := bufio.NewReader(pr)
	event, err := r.ReadString('\n')
	if err != nil || event != "event: frame\n" {
		t.Fatalf("event line %q: %v", event, err)
	}
	data, err := r.ReadString('\n')
	if err != nil || !strings.HasPrefix(data, "data: ") {
		t.Fatalf("data line %q: %v", data, err)
	}
	var f viewdto.Frame
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(data), "data: ")), &f); err != nil || f.Status != "Your move" {
		t.Fatalf("payload: %v %+v", err, f)
	}
	if _, err := r.ReadString('\n'); err != nil {
		t.Fatalf("blank line: %v", err)
	}

	close(done)
	if err := <-errCh; err != nil {
		t.Fatalf("writeEvents: %v", err)
	}
}

func TestMirror_Games(t *testing.T) {
	m := New(nil, nil)
	if ctx := serve(m, "GET", "/games"); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("games without archive: %d", ctx.Response.StatusCode())
	}

	repo := archive.NewMemoryRepository()
	m.AttachArchive(repo)
	if ctx := serve(m, "GET", "/games"); ctx.Response.StatusCode() != fasthttp.StatusOK || string(ctx.Response.Body()) != "[]" {
		t.Fatalf("empty games: %d %q", ctx.Response.StatusCode(), ctx.Response.Body())
	}

	ended := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)
	var ids []int64
	for i, result := range []string{"1-0", "0-1"} {
		rec := &viewdto.GameRecord{
			GameUUID: fmt.Sprintf("game-%d", i),
			Result:   result,
			MovesSAN: []string{"e4", "e5"},
			FinalFEN: "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
			EndedAt:  ended.Add(time.Duration(i) * time.Minute),
		}
		rec.PGN = archive.BuildPGN(rec)
		id, err := repo.InsertGame(context.Background(), rec)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		ids = append(ids, id)
	}

	ctx := serve(m, "GET", "/games?limit=1")
	var games []viewdto.GameRecord
	if err := json.Unmarshal(ctx.Response.Body(), &games); err != nil || len(games) != 1 || games[0].Result != "0-1" {
		t.Fatalf("recent games: %v %+v", err, games)
	}
	if ctx := serve(m, "GET", "/games?limit=x"); ctx.Response.StatusCode() != fasthttp.StatusBadRequest {
		t.Fatalf("bad limit: %d", ctx.Response.StatusCode())
	}

	ctx = serve(m, "GET", fmt.Sprintf("/games/%d", ids[0]))
	var rec viewdto.GameRecord
	if err := json.Unmarshal(ctx.Response.Body(), &rec); err != nil || rec.Result != "1-0" || rec.FinalFEN == "" {
		t.Fatalf("game json: %v %+v", err, rec)
	}

	ctx = serve(m, "GET", fmt.Sprintf("/games/%d.pgn", ids[0]))
	if ctx.Response.StatusCode() != fasthttp.StatusOK || !strings.Contains(string(ctx.Response.Body()), "1. e4 e5 1-0") {
		t.Fatalf("game pgn: %d %q", ctx.Response.StatusCode(), ctx.Response.Body())
	}
	if ct := string(ctx.Response.Header.ContentType()); ct != "application/x-chess-pgn" {
		t.Fatalf("content type = %q", ct)
	}

	for _, path := range []string{"/games/999.pgn", "/games/abc", "/games/0"} {
		if ctx := serve(m, "GET", path); ctx.Response.StatusCode() != fasthttp.StatusNotFound {
			t.Fatalf("%s: %d", path, ctx.Response.StatusCode())
		}
	}
}
