package snapshot

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"haven.world/internal/sim/world/kernel/model"
)

// Compressed reports whether path selects zstd-compressed JSON.
func Compressed(path string) bool { return strings.HasSuffix(path, ".zst") }

// WriteJSON replaces the file at path with the JSON encoding of v. Content goes to a
// temp file in the same directory which is then renamed over the target, so a crash
// never leaves a truncated snapshot behind.
func WriteJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	fail := func(err error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := encodeTo(f, Compressed(path), v); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func encodeTo(f io.Writer, compressed bool, v any) error {
	dst := f
	var enc *zstd.Encoder
	if compressed {
		var err error
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		dst = enc
	}
	bw := bufio.NewWriterSize(dst, 256*1024)
	je := json.NewEncoder(bw)
	je.SetIndent("", "  ")
	err := je.Encode(v)
	if err != nil {
		err = fmt.Errorf("json encode: %w", err)
	} else {
		err = bw.Flush()
	}
	if enc != nil {
		if cerr := enc.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ReadJSON decodes the file at path into v. A missing file surfaces as an error
// matching os.ErrNotExist.
func ReadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var src io.Reader = f
	if Compressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return err
		}
		defer dec.Close()
		src = dec
	}
	if err := json.NewDecoder(bufio.NewReaderSize(src, 256*1024)).Decode(v); err != nil {
		return fmt.Errorf("json decode %s: %w", path, err)
	}
	return nil
}

// WorldFile persists the ordered entity collection. A missing file loads as an
// empty world.
type WorldFile struct {
	Path string
}

func (w WorldFile) LoadWorld() ([]model.Entity, error) {
	var out []model.Entity
	if err := ReadJSON(w.Path, &out); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

func (w WorldFile) SaveWorld(entities []model.Entity) error {
	if entities == nil {
		entities = []model.Entity{}
	}
	return WriteJSON(w.Path, entities)
}

// PlayersFile persists the player ledger keyed by player id.
type PlayersFile struct {
	Path string
}

func (p PlayersFile) LoadPlayers() (map[string]model.PlayerRecord, error) {
	var out map[string]model.PlayerRecord
	if err := ReadJSON(p.Path, &out); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]model.PlayerRecord{}, nil
		}
		return nil, err
	}
	if out == nil {
		out = map[string]model.PlayerRecord{}
	}
	for id, rec := range out {
		if rec.ID == "" {
			rec.ID = id
			out[id] = rec
		}
	}
	return out, nil
}

func (p PlayersFile) SavePlayers(players map[string]model.PlayerRecord) error {
	if players == nil {
		players = map[string]model.PlayerRecord{}
	}
	return WriteJSON(p.Path, players)
}
