// Package daily derives the word sequence of the daily challenge.
//
// Every player gets the same words on the same UTC date. The order is a
// deterministic shuffle keyed by HMAC(salt, YYYY-MM-DD), so the sequence cannot
// be predicted without the salt.
package daily

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"strconv"
	"time"

	"github.com/wordeo/wordeo/apps/go-server/internal/game"
	"github.com/wordeo/wordeo/apps/go-server/internal/words"
)

// Mode is the game mode recorded for daily scores.
const Mode = "daily"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Sequence returns count distinct indexes into a pool of poolLen words for the
// date of t. count is capped at poolLen.
func Sequence(t time.Time, salt string, count, poolLen int) []int {
	if poolLen <= 0 || count <= 0 {
		return nil
	}
	if count > poolLen {
		count = poolLen
	}
	dk := DateKey(t)
	idx := make([]int, poolLen)
	for i := range idx {
		idx[i] = i
	}
	// Partial Fisher–Yates driven by one HMAC per position.
	for i := 0; i < count; i++ {
		h := hmac.New(sha256.New, []byte(salt))
		h.Write([]byte(dk + ":" + strconv.Itoa(i)))
		n := binary.BigEndian.Uint64(h.Sum(nil)[:8])
		j := i + int(n%uint64(poolLen-i))
		idx[i], idx[j] = idx[j], idx[i]
	}
	return idx[:count]
}

// Lister returns the full ordered word pool.
type Lister interface {
	All(ctx context.Context) ([]words.Entry, error)
}

// Supply is a game.WordSupply yielding the daily sequence.
type Supply struct {
	Pool Lister
	Salt string
	Now  func() time.Time
}

// Fetch implements game.WordSupply.
func (s Supply) Fetch(ctx context.Context, count int) ([]game.Word, error) {
	all, err := s.Pool.All(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	seq := Sequence(now(), s.Salt, count, len(all))
	out := make([]game.Word, len(seq))
	for i, j := range seq {
		out[i] = all[j].Word
	}
	return out, nil
}
