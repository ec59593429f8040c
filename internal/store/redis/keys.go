package redis

const (
	// KeyPrefixNode is the prefix for node keys (JSON, no children)
	KeyPrefixNode = "bookmarko:node:"
	// KeyPrefixChildren is the prefix for ordered child id lists
	KeyPrefixChildren = "bookmarko:children:"
	// KeySequence is the id counter
	KeySequence = "bookmarko:seq"
	// KeyVersion is bumped by every write; writers WATCH it
	KeyVersion = "bookmarko:version"
	// ChannelEvents is the pub/sub channel carrying change events
	ChannelEvents = "bookmarko:events"
)

// NodeKey returns the Redis key for a node by ID
func NodeKey(id string) string {
	return KeyPrefixNode + id
}

// ChildrenKey returns the Redis key for the child list of a folder
func ChildrenKey(id string) string {
	return KeyPrefixChildren + id
}
