package handler

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"

	"github.com/zombrise/server/internal/component"
	"github.com/zombrise/server/internal/net"
	"github.com/zombrise/server/internal/net/packet"
)

// MaxNameRunes bounds a display name after normalization.
const MaxNameRunes = 16

// HandleJoin processes C_JOIN: stores the normalized display name on the
// sender's player.
func HandleJoin(sess *net.Session, r *packet.Reader, deps *Deps) {
	var msg packet.Join
	if err := r.Decode(&msg); err != nil {
		deps.Log.Debug("C_JOIN 解碼失敗", zap.Uint64("client", sess.ID), zap.Error(err))
		return
	}
	client := component.ClientID(sess.ID)
	id, ok := deps.World.PlayerOf(client)
	if !ok {
		return
	}
	name := NormalizeName(msg.Name)
	if name == "" {
		name = fmt.Sprintf("Survivor-%d", sess.ID)
	}
	deps.World.Nicknames.Set(id, &component.Nickname{Name: name})
	sess.SetState(packet.StateJoined)
	deps.Log.Info(fmt.Sprintf("玩家加入  client=%d  name=%s", sess.ID, name))
}

// NormalizeName folds compatibility and full-width forms, drops control
// and format characters, collapses spaces and truncates to MaxNameRunes.
func NormalizeName(raw string) string {
	s := width.Fold.String(norm.NFKC.String(raw))
	var b strings.Builder
	n := 0
	space := false
	for _, r := range strings.TrimSpace(s) {
		if n >= MaxNameRunes {
			break
		}
		switch {
		case unicode.IsControl(r) || unicode.Is(unicode.Cf, r):
			continue
		case unicode.IsSpace(r):
			if space {
				continue
			}
			space = true
			r = ' '
		default:
			space = false
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}
