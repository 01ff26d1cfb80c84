package badger

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/poiesic/hybrid/core"
)

// Key prefixes for different data types
const (
	passagePrefix    = "psg"   // psg:<passageID> -> passage
	postingPrefix    = "trm"   // trm:<termID><passageID> -> term frequency
	lengthPrefix     = "len"   // len:<passageID> -> token count
	termListPrefix   = "ptrm"  // ptrm:<passageID>\x00<term> -> nothing; lets a rewrite drop old postings
	mentionPrefix    = "ment"  // ment:<entity>\x00<documentID>\x00<passageID> -> mention
	docEntityPrefix  = "dent"  // dent:<documentID>\x00<entity> -> entity name and type
	corpusStatsKey   = "meta:stats"
	checkpointSuffix = "chkpt"
)

const keySep = "\x00"

// entityKey is the normalized form entity names are indexed under.
func entityKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func makePassageKey(id string) []byte {
	return []byte(passagePrefix + ":" + id)
}

func makeLengthKey(id string) []byte {
	return []byte(lengthPrefix + ":" + id)
}

// makePostingPrefix returns the prefix shared by all postings of a term.
// Format: prefix:termID (8 bytes, big endian)
func makePostingPrefix(term string) []byte {
	buf := make([]byte, len(postingPrefix)+1+8)
	offset := copy(buf, postingPrefix+":")
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(term)))
	return buf
}

// makePostingKey generates a posting key.
// Format: prefix:termID:passageID
func makePostingKey(term, passageID string) []byte {
	return append(makePostingPrefix(term), passageID...)
}

func makeTermListPrefix(passageID string) []byte {
	return []byte(termListPrefix + ":" + passageID + keySep)
}

func makeTermListKey(passageID, term string) []byte {
	return append(makeTermListPrefix(passageID), term...)
}

// makeMentionPrefix returns the prefix of every mention of an entity; an
// empty entity yields the prefix of all mentions.
func makeMentionPrefix(entity string) []byte {
	if entity == "" {
		return []byte(mentionPrefix + ":")
	}
	return []byte(mentionPrefix + ":" + entityKey(entity) + keySep)
}

func makeMentionKey(entity, documentID, passageID string) []byte {
	return []byte(mentionPrefix + ":" + entityKey(entity) + keySep + documentID + keySep + passageID)
}

// parseMentionKey splits a mention key into entity, document and passage.
func parseMentionKey(key []byte) (entity, documentID, passageID string, err error) {
	rest, ok := bytes.CutPrefix(key, []byte(mentionPrefix+":"))
	if !ok {
		return "", "", "", fmt.Errorf("not a mention key: %q", key)
	}
	parts := strings.SplitN(string(rest), keySep, 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("malformed mention key: %q", key)
	}
	return parts[0], parts[1], parts[2], nil
}

func makeDocEntityPrefix(documentID string) []byte {
	return []byte(docEntityPrefix + ":" + documentID + keySep)
}

func makeDocEntityKey(documentID, entity string) []byte {
	return append(makeDocEntityPrefix(documentID), entityKey(entity)...)
}

// makeCheckpointKey generates a key for load checkpoints.
func makeCheckpointKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", checkpointSuffix, name))
}
