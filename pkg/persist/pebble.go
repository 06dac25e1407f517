// Package persist is the durable-storage collaborator: it snapshots the
// per-conversation message map into a pebble keyspace and restores it on
// the next session start. It owns its own error handling; failures are
// logged and counted, never propagated into core mutations.
package persist

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/valyala/bytebufferpool"

	"chatcore/pkg/logger"
	"chatcore/pkg/models"
	"chatcore/pkg/store"
	"chatcore/pkg/telemetry"
)

// Adapter wraps an opened pebble DB.
type Adapter struct {
	db   *pebble.DB
	path string
	// vseq reduces version-key collisions when multiple writes share a
	// nanosecond timestamp.
	vseq uint64
}

// Open opens (or creates) the pebble database at path. cacheBytes > 0
// sizes the block cache.
func Open(path string, cacheBytes int64) (*Adapter, error) {
	opts := &pebble.Options{}
	if cacheBytes > 0 {
		c := pebble.NewCache(cacheBytes)
		defer c.Unref()
		opts.Cache = c
	}
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, opts)
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, err
	}
	return &Adapter{db: db, path: path}, nil
}

// Close closes the DB if open.
func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	if err := a.db.Close(); err != nil {
		return err
	}
	a.db = nil
	logger.Info("pebble_closed", "path", a.path)
	return nil
}

// Ready reports whether the adapter is open.
func (a *Adapter) Ready() bool { return a.db != nil }

func (a *Adapter) encode(v any) (*bytebufferpool.ByteBuffer, error) {
	bb := bytebufferpool.Get()
	if err := json.NewEncoder(bb).Encode(v); err != nil {
		bytebufferpool.Put(bb)
		return nil, err
	}
	return bb, nil
}

// SaveMessage writes the live row for m. When keepVersion is set and a
// prior row exists, the prior bytes move into the version namespace first
// so the audit trail survives edits and tombstoning.
func (a *Adapter) SaveMessage(m models.Message, keepVersion bool) error {
	if a.db == nil {
		return fmt.Errorf("pebble not opened; call persist.Open first")
	}
	key := []byte(MsgKey(m.Conversation, m.Seq))
	if keepVersion {
		if prior, closer, err := a.db.Get(key); err == nil {
			ts := time.Now().UTC().UnixNano()
			vk := VersionKey(m.ID, ts, atomic.AddUint64(&a.vseq, 1))
			verr := a.db.Set([]byte(vk), prior, pebble.Sync)
			closer.Close()
			if verr != nil {
				logger.Error("save_version_failed", "key", vk, "error", verr)
				return verr
			}
		}
	}
	bb, err := a.encode(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	defer bytebufferpool.Put(bb)
	if err := a.db.Set(key, bb.B, pebble.Sync); err != nil {
		logger.Error("save_message_failed", "conversation", m.Conversation, "id", m.ID, "error", err)
		return err
	}
	return nil
}

// SaveConversation writes the metadata row for c.
func (a *Adapter) SaveConversation(c models.Conversation) error {
	if a.db == nil {
		return fmt.Errorf("pebble not opened; call persist.Open first")
	}
	bb, err := a.encode(c)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	defer bytebufferpool.Put(bb)
	return a.db.Set([]byte(MetaKey(c.ID)), bb.B, pebble.Sync)
}

// Restored is one conversation recovered from the snapshot, messages in
// append order.
type Restored struct {
	Meta     models.Conversation
	Messages []models.Message
}

// LoadConversations reads the full per-conversation message map back out
// of the snapshot. Timestamps round-trip exactly (UnixNano int64).
func (a *Adapter) LoadConversations() ([]Restored, error) {
	if a.db == nil {
		return nil, fmt.Errorf("pebble not opened; call persist.Open first")
	}
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(convPrefix),
		UpperBound: []byte("conv;"), // ';' follows ':' in byte order
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Restored
	var cur *Restored
	for iter.First(); iter.Valid(); iter.Next() {
		convID, rest, ok := parseConvKey(string(iter.Key()))
		if !ok {
			continue
		}
		if cur == nil || cur.Meta.ID != convID {
			out = append(out, Restored{Meta: models.Conversation{ID: convID}})
			cur = &out[len(out)-1]
		}
		val := iter.Value()
		if rest == "meta" {
			if err := json.Unmarshal(val, &cur.Meta); err != nil {
				logger.Warn("restore_bad_meta", "conversation", convID, "error", err)
			}
			continue
		}
		var m models.Message
		if err := json.Unmarshal(val, &m); err != nil {
			logger.Warn("restore_bad_message", "conversation", convID, "error", err)
			continue
		}
		cur.Messages = append(cur.Messages, m)
	}
	logger.Info("conversations_restored", "count", len(out))
	return out, nil
}

// PurgeVersions deletes version rows written before cutoff and returns
// how many matched. Live rows are never touched; tombstoned messages stay
// in the sequence forever.
func (a *Adapter) PurgeVersions(cutoff time.Time, dryRun bool) (int, error) {
	if a.db == nil {
		return 0, fmt.Errorf("pebble not opened; call persist.Open first")
	}
	iter, err := a.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(versionPrefix),
		UpperBound: []byte("version:msh"),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	limit := cutoff.UnixNano()
	n := 0
	var stale [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		ts, ok := versionTS(string(iter.Key()))
		if !ok || ts >= limit {
			continue
		}
		n++
		if !dryRun {
			stale = append(stale, append([]byte(nil), iter.Key()...))
		}
	}
	for _, k := range stale {
		if err := a.db.Delete(k, pebble.NoSync); err != nil {
			return n, err
		}
	}
	return n, nil
}

// Attach subscribes the adapter to store mutations. Dispose is ignored:
// the snapshot outlives the in-memory conversation so the next session
// can restore it.
func (a *Adapter) Attach(st *store.Store) {
	st.Subscribe(func(ev store.Event) {
		var err error
		switch ev.Type {
		case store.EventAppend:
			if err = a.SaveMessage(ev.Message, false); err == nil {
				err = a.SaveConversation(models.Conversation{
					ID: ev.Conversation, Peer: ev.Peer, NextSeq: ev.NextSeq,
				})
			}
		case store.EventUpdate:
			err = a.SaveMessage(ev.Message, true)
		case store.EventDispose:
			return
		}
		if err != nil {
			telemetry.SnapshotWrites.WithLabelValues("error").Inc()
			logger.Error("snapshot_write_failed", "conversation", ev.Conversation, "error", err)
			return
		}
		telemetry.SnapshotWrites.WithLabelValues("ok").Inc()
	})
}
