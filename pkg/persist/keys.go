package persist

import (
	"fmt"
	"strconv"
	"strings"
)

// Key layout, one flat pebble keyspace:
//
//	conv:<conversationID>:meta                    conversation metadata
//	conv:<conversationID>:msg:<seq padded 20>     live message row
//	version:msg:<messageID>:<ts 20>-<seq 6>       superseded row (audit trail)
//
// The meta row sorts before the message rows of its conversation, which
// LoadConversations relies on.

const (
	convPrefix    = "conv:"
	versionPrefix = "version:msg:"
)

// MsgKey returns the live row key for a message.
func MsgKey(conversationID string, seq uint64) string {
	return fmt.Sprintf("conv:%s:msg:%020d", conversationID, seq)
}

// MetaKey returns the metadata row key for a conversation.
func MetaKey(conversationID string) string {
	return fmt.Sprintf("conv:%s:meta", conversationID)
}

// VersionKey returns the audit-trail key for a superseded message row.
func VersionKey(messageID string, ts int64, seq uint64) string {
	return fmt.Sprintf("version:msg:%s:%020d-%06d", messageID, ts, seq)
}

// parseConvKey splits a conv: key into conversation id and the remainder
// ("meta" or "msg:<seq>").
func parseConvKey(key string) (conversationID, rest string, ok bool) {
	if !strings.HasPrefix(key, convPrefix) {
		return "", "", false
	}
	body := key[len(convPrefix):]
	i := strings.LastIndex(body, ":msg:")
	if i >= 0 {
		return body[:i], body[i+1:], true
	}
	if strings.HasSuffix(body, ":meta") {
		return strings.TrimSuffix(body, ":meta"), "meta", true
	}
	return "", "", false
}

// versionTS extracts the write timestamp from a version key; the retention
// runner uses it to age out old rows.
func versionTS(key string) (int64, bool) {
	if !strings.HasPrefix(key, versionPrefix) {
		return 0, false
	}
	body := key[len(versionPrefix):]
	i := strings.LastIndex(body, ":")
	if i < 0 {
		return 0, false
	}
	seg := body[i+1:]
	if j := strings.IndexByte(seg, '-'); j >= 0 {
		seg = seg[:j]
	}
	ts, err := strconv.ParseInt(seg, 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}
