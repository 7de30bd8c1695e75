package domain

// InsertHandle is an opaque handle returned by an editor surface for an
// in-progress streaming insert.
type InsertHandle any

// Editor is the streaming-insert capability of a document editing surface.
//
// EndStreamingInsert preserves whatever partial content was inserted;
// cancellation-with-content-removal is not supported; undo is expected to be
// handled by a snapshot taken before the insert began.
type Editor interface {
	BeginStreamingInsert(position int) (InsertHandle, error)
	AppendStreamToken(handle InsertHandle, token string) error
	EndStreamingInsert(handle InsertHandle) error
}
