package publish

import "liquidityEngine/internal/processor"

// Publisher is the downstream fan-out for processed commands.
type Publisher interface {
	PublishResult(seq uint64, result *processor.Result) error
}
