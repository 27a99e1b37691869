package badger

// Key prefixes for different data types
const (
	collectionPrefix = "coll:"
	documentPrefix   = "doc:"
	sequencePrefix   = "docseq:"
)

// makeCollectionKey generates the metadata key for a collection.
func makeCollectionKey(name string) []byte {
	return []byte(collectionPrefix + name)
}

// makeDocumentPrefix generates the prefix shared by every document in a collection.
// Format: prefix:name\x00
// The NUL separator keeps "f1" from matching documents of "f1gpt".
func makeDocumentPrefix(name string) []byte {
	prefix := documentPrefix + name
	buf := make([]byte, len(prefix)+1)
	copy(buf, prefix)
	return buf
}

// makeDocumentKey generates a key for a document by collection and ID.
// Format: prefix:name\x00id
func makeDocumentKey(name, id string) []byte {
	prefix := makeDocumentPrefix(name)
	buf := make([]byte, len(prefix)+len(id))
	offset := copy(buf, prefix)
	copy(buf[offset:], id)
	return buf
}

// makeSequenceKey generates the ID sequence key for a collection.
func makeSequenceKey(name string) []byte {
	return []byte(sequencePrefix + name)
}
