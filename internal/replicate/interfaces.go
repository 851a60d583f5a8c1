package replicate

// CommandApplier is the piece of the command layer the sync path needs:
// something that can apply a batch of previously accepted write
// requests without re-logging them.
type CommandApplier interface {
	Replay(requests []map[string]interface{}) error
}
